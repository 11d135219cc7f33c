package catalog

import "discovery-backend/internal/geo"

// Amenity flag keys accepted by nearby filters.
const (
	AmenityWiFi        = "has_wifi"
	AmenitySocket      = "has_socket"
	AmenityPetFriendly = "is_pet_friendly"
	AmenityQuiet       = "is_quiet"
	AmenityFood        = "serves_food"
	AmenityBoardGames  = "has_board_games"
)

// KnownAmenities lists the amenity flags stored per vendor, in column order.
var KnownAmenities = []string{
	AmenityWiFi,
	AmenitySocket,
	AmenityPetFriendly,
	AmenityQuiet,
	AmenityFood,
	AmenityBoardGames,
}

// Vendor is a venue with a location and a menu of catalog items.
type Vendor struct {
	ID        int64           `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Address   string          `json:"address,omitempty" yaml:"address"`
	Location  *geo.Coordinate `json:"location,omitempty" yaml:"location"`
	Amenities map[string]bool `json:"amenities" yaml:"amenities"`
	Items     []Item          `json:"items" yaml:"items"`
	Approved  bool            `json:"approved" yaml:"approved"`
}

// Item is a single purchasable product of one vendor.
type Item struct {
	ID          int64   `json:"id" yaml:"id"`
	VendorID    int64   `json:"vendorId" yaml:"vendor_id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Category    string  `json:"category,omitempty" yaml:"category"`
	Price       float64 `json:"price" yaml:"price"`
}

// HasAmenity reports whether the vendor's flag is set. Unknown keys are false.
func (v Vendor) HasAmenity(key string) bool {
	if v.Amenities == nil {
		return false
	}
	return v.Amenities[key]
}
