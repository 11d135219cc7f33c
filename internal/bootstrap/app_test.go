package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/llm"
	"discovery-backend/internal/recommend"
	"discovery-backend/internal/shared/config"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.LLM.Provider = "none"
	cfg.RateLimit.RPS = 100
	cfg.RateLimit.Burst = 100
	return cfg
}

func buildTestApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestBuildUsesMemoryCatalogInDev(t *testing.T) {
	app := buildTestApp(t, testConfig())
	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if llm.Available(app.LLM) || app.Breaker != nil {
		t.Fatalf("expected unavailable generator without breaker")
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "staging"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in staging")
	}
}

func TestRouterServesSeedCatalog(t *testing.T) {
	app := buildTestApp(t, testConfig())

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/vendors/nearby?lat=40.9869&lon=29.0253&radius_km=1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("nearby: expected 200, got %d", resp.Code)
	}
	var payload struct {
		Count int `json:"count"`
		Items []struct {
			ID int64 `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Count == 0 || payload.Items[0].ID != 1 {
		t.Fatalf("expected the seed roastery first, got %+v", payload)
	}
}

func TestRouterRecommendFallbackEndToEnd(t *testing.T) {
	app := buildTestApp(t, testConfig())

	body := bytes.NewBufferString(`{"message":"long day, I need something","lat":40.9869,"lon":29.0253}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var res recommend.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Provenance != recommend.ProvenanceFallback || res.Failure != recommend.FailureNotConfigured {
		t.Fatalf("unexpected provenance %s/%s", res.Provenance, res.Failure)
	}
	if len(res.Entries) == 0 || len(res.Entries) > recommend.MaxEntries {
		t.Fatalf("expected 1..%d entries, got %d", recommend.MaxEntries, len(res.Entries))
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouterRateLimitsRecommendations(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 1
	app := buildTestApp(t, cfg)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", bytes.NewBufferString(`{"message":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := buildTestApp(t, testConfig())
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestBuildGenerator(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LLMConfig
		available bool
		wantErr   bool
	}{
		{"none", config.LLMConfig{Provider: "none"}, false, false},
		{"openai without key", config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"}, false, false},
		{"openai with key", config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", OpenAIAPIKey: "sk"}, true, false},
		{"gemini with key", config.LLMConfig{Provider: "gemini", Model: "gpt-4o-mini", GeminiAPIKey: "g"}, true, false},
		{"unknown", config.LLMConfig{Provider: "bard"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := BuildGenerator(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if err == nil && llm.Available(gen) != tt.available {
				t.Fatalf("expected available=%v", tt.available)
			}
		})
	}
}

func TestBuildLoadsExternalSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	seed := "vendors:\n  - id: 77\n    name: Harbor Kiosk\n    approved: true\n    location: {lat: 41.0, lon: 29.0}\n    items:\n      - {id: 770, name: Tea, category: Tea, price: 20}\n"
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	cfg := testConfig()
	cfg.Catalog.SeedURI = path
	app := buildTestApp(t, cfg)

	vendors, err := app.CatalogService.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(vendors) != 1 || vendors[0].ID != 77 {
		t.Fatalf("expected external seed vendor, got %+v", vendors)
	}
}

func TestBuildFailsOnMissingSeed(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.SeedURI = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected missing seed error")
	}
}
