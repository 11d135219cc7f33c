package catalog

import (
	"sort"
	"strings"

	"discovery-backend/internal/geo"
)

// NearbyQuery selects vendors around an optional origin.
type NearbyQuery struct {
	Origin       *geo.Coordinate
	RadiusKM     *float64
	Amenities    []string
	NameContains string
	Limit        int
}

// Nearby is a vendor paired with its distance from the query origin.
type Nearby struct {
	Vendor     Vendor
	DistanceKM float64
}

// Locate filters approved vendors by amenities, name and radius and orders them
// by ascending distance, ties broken by vendor id. Vendors without a known
// distance sort last and never satisfy a radius.
func Locate(vendors []Vendor, q NearbyQuery) []Nearby {
	needle := strings.ToLower(strings.TrimSpace(q.NameContains))
	out := make([]Nearby, 0, len(vendors))
	for _, v := range vendors {
		if !v.Approved {
			continue
		}
		if !hasAll(v, q.Amenities) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(v.Name), needle) {
			continue
		}
		d := geo.DistanceKM(q.Origin, v.Location)
		if !geo.WithinRadius(d, q.RadiusKM) {
			continue
		}
		out = append(out, Nearby{Vendor: v, DistanceKM: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKM != out[j].DistanceKM {
			return out[i].DistanceKM < out[j].DistanceKM
		}
		return out[i].Vendor.ID < out[j].Vendor.ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func hasAll(v Vendor, amenities []string) bool {
	for _, key := range amenities {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !v.HasAmenity(key) {
			return false
		}
	}
	return true
}

// IsKnownAmenity reports whether key is a stored amenity flag.
func IsKnownAmenity(key string) bool {
	for _, k := range KnownAmenities {
		if k == key {
			return true
		}
	}
	return false
}
