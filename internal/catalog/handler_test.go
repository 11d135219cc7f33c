package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/geo"
)

func newHandlerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo(
		Vendor{ID: 1, Name: "Moda Roastery", Approved: true, Location: &geo.Coordinate{Lat: 40.9869, Lon: 29.0253},
			Amenities: map[string]bool{AmenityWiFi: true}, Items: []Item{{ID: 10, Name: "Americano"}}},
		Vendor{ID: 2, Name: "Bahariye Kahve Evi", Approved: true, Location: &geo.Coordinate{Lat: 40.9884, Lon: 29.0309}},
		Vendor{ID: 3, Name: "Far Away", Approved: true, Location: &geo.Coordinate{Lat: 41.2, Lon: 29.3}},
		Vendor{ID: 4, Name: "Pending", Approved: false, Location: &geo.Coordinate{Lat: 40.9869, Lon: 29.0253}},
	)
	r := gin.New()
	NewHandler(NewService(repo)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

type nearbyPayload struct {
	Items []NearbyVendorResponse `json:"items"`
	Count int                    `json:"count"`
}

func getNearby(t *testing.T, r http.Handler, query string) (int, nearbyPayload) {
	t.Helper()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/vendors/nearby"+query, nil))
	var payload nearbyPayload
	if resp.Code == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.Code, payload
}

func TestNearbyHandler(t *testing.T) {
	r := newHandlerRouter()
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{"radius", "?lat=40.9869&lon=29.0253&radius_km=2", []int64{1, 2}},
		{"amenity", "?lat=40.9869&lon=29.0253&has_wifi=true", []int64{1}},
		{"amenity false is not a filter", "?has_wifi=false", []int64{1, 2, 3}},
		{"name filter", "?name=KAHVE", []int64{2}},
		{"limit", "?lat=40.9869&lon=29.0253&limit=1", []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, payload := getNearby(t, r, tt.query)
			if code != http.StatusOK {
				t.Fatalf("expected 200, got %d", code)
			}
			if payload.Count != len(tt.wantIDs) {
				t.Fatalf("expected %d vendors, got %+v", len(tt.wantIDs), payload.Items)
			}
			for i, id := range tt.wantIDs {
				if payload.Items[i].ID != id {
					t.Fatalf("position %d: expected %d, got %d", i, id, payload.Items[i].ID)
				}
			}
		})
	}
}

func TestNearbyHandlerUnknownDistanceIsNull(t *testing.T) {
	code, payload := getNearby(t, newHandlerRouter(), "")
	if code != http.StatusOK || payload.Count != 3 {
		t.Fatalf("unexpected response %d %+v", code, payload)
	}
	if payload.Items[0].DistanceKM != nil {
		t.Fatalf("expected null distance without origin")
	}
}

func TestNearbyHandlerRejectsBadInput(t *testing.T) {
	r := newHandlerRouter()
	for _, q := range []string{"?lat=40", "?lat=abc&lon=1", "?lat=95&lon=0", "?radius_km=-1", "?limit=x", "?has_wifi=maybe"} {
		if code, _ := getNearby(t, r, q); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, code)
		}
	}
}

func TestGetVendorHandler(t *testing.T) {
	r := newHandlerRouter()
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/vendors/1", http.StatusOK},
		{"/api/v1/vendors/4", http.StatusNotFound},
		{"/api/v1/vendors/99", http.StatusNotFound},
		{"/api/v1/vendors/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.path, tt.want, resp.Code)
		}
	}
}
