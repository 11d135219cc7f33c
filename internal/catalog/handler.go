package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/geo"
	"discovery-backend/internal/shared/server/respond"
)

const maxNearbyLimit = 100

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/vendors/nearby", h.nearby)
	rg.GET("/vendors/:id", h.get)
}

// NearbyVendorResponse is a vendor summary with its distance from the caller.
type NearbyVendorResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Address    string          `json:"address,omitempty"`
	Location   *geo.Coordinate `json:"location,omitempty"`
	Amenities  map[string]bool `json:"amenities"`
	ItemCount  int             `json:"itemCount"`
	DistanceKM *float64        `json:"distanceKm"`
}

func (h *Handler) nearby(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	q, err := parseNearbyQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	results, err := h.Svc.Nearby(c.Request.Context(), q)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load vendors", nil)
		return
	}
	items := make([]NearbyVendorResponse, 0, len(results))
	for _, n := range results {
		items = append(items, NearbyVendorResponse{
			ID:         n.Vendor.ID,
			Name:       n.Vendor.Name,
			Address:    n.Vendor.Address,
			Location:   n.Vendor.Location,
			Amenities:  n.Vendor.Amenities,
			ItemCount:  len(n.Vendor.Items),
			DistanceKM: DistancePtr(n.DistanceKM),
		})
	}
	respond.OK(c, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid vendor id", nil)
		return
	}
	vendor, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "vendor not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load vendor", nil)
		return
	}
	respond.OK(c, vendor)
}

func parseNearbyQuery(c *gin.Context) (NearbyQuery, error) {
	var q NearbyQuery
	origin, err := ParseOrigin(c.Query("lat"), c.Query("lon"))
	if err != nil {
		return q, err
	}
	q.Origin = origin

	if raw := strings.TrimSpace(c.Query("radius_km")); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 {
			return q, errors.New("radius_km must be a non-negative number")
		}
		q.RadiusKM = &r
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, errors.New("limit must be a non-negative integer")
		}
		if n > maxNearbyLimit {
			n = maxNearbyLimit
		}
		q.Limit = n
	}
	q.NameContains = c.Query("name")
	for _, key := range KnownAmenities {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return q, errors.New(key + " must be a boolean")
		}
		if on {
			q.Amenities = append(q.Amenities, key)
		}
	}
	return q, nil
}

// ParseOrigin parses an optional lat/lon pair. Both must be present or both absent.
func ParseOrigin(rawLat, rawLon string) (*geo.Coordinate, error) {
	rawLat = strings.TrimSpace(rawLat)
	rawLon = strings.TrimSpace(rawLon)
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, errors.New("lat and lon must be provided together")
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, errors.New("lon must be a number")
	}
	return geo.NewCoordinate(lat, lon)
}

// DistancePtr returns nil for an unknown distance so it encodes as JSON null.
func DistancePtr(d float64) *float64 {
	if !geo.Known(d) {
		return nil
	}
	return &d
}
