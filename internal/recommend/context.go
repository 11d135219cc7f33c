package recommend

import (
	"fmt"
	"strings"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/geo"
)

// ContextLimits bounds the ranking window.
type ContextLimits struct {
	Vendors        int
	ItemsPerVendor int
}

// DefaultContextLimits matches the shipped configuration.
func DefaultContextLimits() ContextLimits {
	return ContextLimits{Vendors: 5, ItemsPerVendor: 25}
}

// ContextItem is an item eligible for ranking, with its vendor resolved.
type ContextItem struct {
	Item       catalog.Item
	VendorID   int64
	VendorName string
	DistanceKM float64
}

// RankingContext is the bounded window the ranker may choose from. Only ids
// present in Items can be recommended.
type RankingContext struct {
	Items map[int64]ContextItem
	// Order lists item ids in rendering order.
	Order   []int64
	Vendors int
	Text    string
}

// Len returns the number of eligible items.
func (rc RankingContext) Len() int { return len(rc.Order) }

// BuildContext renders the nearest vendors and their items. nearby must
// already be distance sorted.
func BuildContext(nearby []catalog.Nearby, limits ContextLimits) RankingContext {
	def := DefaultContextLimits()
	if limits.Vendors <= 0 {
		limits.Vendors = def.Vendors
	}
	if limits.ItemsPerVendor <= 0 {
		limits.ItemsPerVendor = def.ItemsPerVendor
	}

	rc := RankingContext{Items: make(map[int64]ContextItem)}
	var sb strings.Builder
	for _, n := range nearby {
		if rc.Vendors >= limits.Vendors {
			break
		}
		if len(n.Vendor.Items) == 0 {
			continue
		}
		rc.Vendors++
		fmt.Fprintf(&sb, "--- VENDOR: %s (distance: %s) ---\n", n.Vendor.Name, geo.FormatKM(n.DistanceKM))
		written := 0
		for _, it := range n.Vendor.Items {
			if written >= limits.ItemsPerVendor {
				break
			}
			if _, dup := rc.Items[it.ID]; dup {
				continue
			}
			rc.Items[it.ID] = ContextItem{
				Item:       it,
				VendorID:   n.Vendor.ID,
				VendorName: n.Vendor.Name,
				DistanceKM: n.DistanceKM,
			}
			rc.Order = append(rc.Order, it.ID)
			written++
			fmt.Fprintf(&sb, "[ID: %d] Item: %s | Price: %s | Category: %s | Description: %s\n",
				it.ID, oneLine(it.Name), formatPrice(it.Price), orDash(it.Category), orDash(it.Description))
		}
		sb.WriteString("\n")
	}
	rc.Text = strings.TrimSpace(sb.String())
	return rc
}

func formatPrice(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.2f", p)
}

func orDash(s string) string {
	s = oneLine(s)
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
