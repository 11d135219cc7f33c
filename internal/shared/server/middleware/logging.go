package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/shared/metrics"
	"discovery-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	ProvenanceKey = "provenance"
	StageKey      = "stage"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, status, latency)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if p := c.GetString(ProvenanceKey); p != "" {
			fields["provenance"] = p
		}
		if s := c.GetString(StageKey); s != "" {
			fields["stage"] = s
		}
		telemetry.Info("request.complete", fields)
	}
}
