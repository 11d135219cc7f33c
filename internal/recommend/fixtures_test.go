package recommend

import (
	"context"
	"strings"
	"sync"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/geo"
)

var origin = &geo.Coordinate{Lat: 40.9869, Lon: 29.0253}

func testVendors() []catalog.Vendor {
	return []catalog.Vendor{
		{
			ID: 1, Name: "Moda Roastery", Approved: true,
			Location: &geo.Coordinate{Lat: 40.9869, Lon: 29.0253},
			Items: []catalog.Item{
				{ID: 10, Name: "Americano", Category: "Hot", Price: 85},
				{ID: 11, Name: "Filter Coffee", Category: "Hot", Price: 75},
				{ID: 12, Name: "Iced Latte", Category: "Cold", Price: 95},
			},
		},
		{
			ID: 2, Name: "Bahariye Kahve Evi", Approved: true,
			Location: &geo.Coordinate{Lat: 40.9884, Lon: 29.0309},
			Items: []catalog.Item{
				{ID: 20, Name: "Latte", Category: "Hot", Price: 90},
				{ID: 21, Name: "Chamomile Tea", Category: "Tea", Price: 60},
			},
		},
		{
			ID: 3, Name: "Caddebostan Pastane", Approved: true,
			Location: &geo.Coordinate{Lat: 40.9637, Lon: 29.0641},
			Items: []catalog.Item{
				{ID: 30, Name: "San Sebastian Cheesecake", Category: "Dessert", Price: 140},
				{ID: 31, Name: "Turkish Coffee", Category: "Hot", Price: 65},
			},
		},
		{
			ID: 4, Name: "Hidden Cafe", Approved: false,
			Location: &geo.Coordinate{Lat: 40.9869, Lon: 29.0253},
			Items:    []catalog.Item{{ID: 40, Name: "Filter Coffee", Price: 10}},
		},
	}
}

func testCatalog() *catalog.Service {
	return catalog.NewService(catalog.NewMemoryRepo(testVendors()...))
}

const classifyMarker = "Reply with the category number only"

// scriptedGenerator answers classify and rank prompts separately.
type scriptedGenerator struct {
	mu          sync.Mutex
	classifyOut string
	rankOut     string
	rankErr     error
	classifyErr error
	block       bool
	panicOnRank bool
	// panicOnClassify panics inside the mood stage.
	panicOnClassify bool
	prompts         []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if strings.Contains(prompt, classifyMarker) {
		if g.panicOnClassify {
			panic("classifier exploded")
		}
		return g.classifyOut, g.classifyErr
	}
	if g.panicOnRank {
		panic("provider exploded")
	}
	return g.rankOut, g.rankErr
}

func itemIDs(entries []Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ItemID)
	}
	return out
}

func contextFor(vendors []catalog.Vendor) RankingContext {
	return BuildContext(catalog.Locate(vendors, catalog.NearbyQuery{Origin: origin}), DefaultContextLimits())
}
