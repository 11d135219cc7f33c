package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/shared/telemetry"
)

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	telemetry.SetOutput(&logs, "debug")
	t.Cleanup(func() { telemetry.Init("info", "json") })

	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.POST("/api/v1/recommendations", func(c *gin.Context) {
		c.Set(StageKey, "mood_fallback")
		panic("kaboom")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				RequestID string `json:"requestId"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "internal" {
		t.Fatalf("unexpected code %q", payload.Error.Code)
	}
	if payload.Error.Details.RequestID == "" || payload.Error.Details.RequestID != resp.Header().Get("X-Request-Id") {
		t.Fatalf("expected request id in details, got %q", payload.Error.Details.RequestID)
	}

	out := logs.String()
	for _, want := range []string{`"msg":"http.panic"`, `"route":"/api/v1/recommendations"`, `"stage":"mood_fallback"`, `"error":"kaboom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output, got %s", want, out)
		}
	}
}
