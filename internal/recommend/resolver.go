package recommend

import (
	"sort"
	"strings"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/moods"
)

// Resolve turns validated picks into entries: at most k, distinct vendors
// first, remaining slots filled from repeat vendors, original pick order kept.
func Resolve(picks []Pick, rc RankingContext, k int) []Entry {
	type resolved struct {
		ci     ContextItem
		reason string
	}
	cands := make([]resolved, 0, len(picks))
	seen := make(map[int64]struct{}, len(picks))
	for _, p := range picks {
		ci, ok := rc.Items[p.ItemID]
		if !ok {
			continue
		}
		if _, dup := seen[p.ItemID]; dup {
			continue
		}
		seen[p.ItemID] = struct{}{}
		cands = append(cands, resolved{ci: ci, reason: p.Reason})
	}

	chosen := selectDiverse(cands, func(r resolved) int64 { return r.ci.VendorID }, k)
	out := make([]Entry, 0, len(chosen))
	for _, r := range chosen {
		out = append(out, newEntry(r.ci, r.reason))
	}
	return out
}

// selectDiverse picks up to k candidates, one per vendor in order first, then
// fills from the skipped ones in order. The result keeps input order.
func selectDiverse[T any](cands []T, vendorOf func(T) int64, k int) []T {
	if k <= 0 {
		k = MaxEntries
	}
	taken := make([]bool, len(cands))
	vendors := make(map[int64]struct{}, k)
	n := 0
	for i, c := range cands {
		if n >= k {
			break
		}
		v := vendorOf(c)
		if _, dup := vendors[v]; dup {
			continue
		}
		vendors[v] = struct{}{}
		taken[i] = true
		n++
	}
	for i := range cands {
		if n >= k {
			break
		}
		if !taken[i] {
			taken[i] = true
			n++
		}
	}
	out := make([]T, 0, n)
	for i, c := range cands {
		if taken[i] {
			out = append(out, c)
		}
	}
	return out
}

// matchArchetypes finds catalog items whose name contains an archetype's
// product, case-insensitively. Candidates are ordered by archetype, then by
// vendor order in nearby, then by item order.
func matchArchetypes(archetypes []moods.Archetype, nearby []catalog.Nearby, k int) []Entry {
	type match struct {
		ci        ContextItem
		archetype moods.Archetype
	}
	var cands []match
	seen := make(map[int64]struct{})
	for _, a := range archetypes {
		needle := strings.ToLower(strings.TrimSpace(a.Product))
		if needle == "" {
			continue
		}
		for _, n := range nearby {
			for _, it := range n.Vendor.Items {
				if _, dup := seen[it.ID]; dup {
					continue
				}
				if !strings.Contains(strings.ToLower(it.Name), needle) {
					continue
				}
				seen[it.ID] = struct{}{}
				cands = append(cands, match{
					ci:        ContextItem{Item: it, VendorID: n.Vendor.ID, VendorName: n.Vendor.Name, DistanceKM: n.DistanceKM},
					archetype: a,
				})
			}
		}
	}

	chosen := selectDiverse(cands, func(m match) int64 { return m.ci.VendorID }, k)
	out := make([]Entry, 0, len(chosen))
	for _, m := range chosen {
		out = append(out, newEntry(m.ci, archetypeReason(m.archetype)))
	}
	return out
}

func archetypeReason(a moods.Archetype) string {
	switch {
	case a.Title != "" && a.Description != "":
		return a.Title + ": " + a.Description
	case a.Description != "":
		return a.Description
	default:
		return a.Title
	}
}

func newEntry(ci ContextItem, justification string) Entry {
	return Entry{
		ItemID:        ci.Item.ID,
		VendorID:      ci.VendorID,
		ItemName:      ci.Item.Name,
		VendorName:    ci.VendorName,
		Category:      ci.Item.Category,
		Description:   ci.Item.Description,
		Price:         ci.Item.Price,
		DistanceKM:    catalog.DistancePtr(ci.DistanceKM),
		Justification: strings.TrimSpace(justification),
	}
}

// distinctVendors counts vendors among entries.
func distinctVendors(entries []Entry) int {
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.VendorID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	n := 0
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			n++
		}
	}
	return n
}
