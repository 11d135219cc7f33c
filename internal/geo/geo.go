package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Coordinate is a WGS 84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within [-90,90]x[-180,180].
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// NewCoordinate returns a coordinate pointer or an error when out of range.
func NewCoordinate(lat, lon float64) (*Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil, fmt.Errorf("coordinate out of range: lat=%v lon=%v", lat, lon)
	}
	return &c, nil
}

// DistanceKM returns the haversine distance between a and b in kilometers.
// An absent coordinate yields +Inf so the entry sorts last and fails any finite radius.
func DistanceKM(a, b *Coordinate) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(h))
}

// WithinRadius reports whether d satisfies an optional radius. A nil radius is unrestricted.
func WithinRadius(d float64, radiusKM *float64) bool {
	if radiusKM == nil {
		return true
	}
	return d <= *radiusKM
}

// Known reports whether a distance is finite.
func Known(d float64) bool {
	return !math.IsInf(d, 0) && !math.IsNaN(d)
}

// FormatKM renders a distance for prompts and logs.
func FormatKM(d float64) string {
	if !Known(d) {
		return "unknown"
	}
	return fmt.Sprintf("%.2f km", d)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
