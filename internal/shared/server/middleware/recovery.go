package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/shared/metrics"
	"discovery-backend/internal/shared/server/respond"
	"discovery-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 envelope carrying the request id,
// so a client report can be matched to the logged stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.IncPanic(route)

			reqID := RequestIDFromContext(c)
			fields := map[string]any{
				"request_id": reqID,
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"route":      route,
				"method":     c.Request.Method,
			}
			// Set when the recommend handler got as far as a result.
			if stage := c.GetString(StageKey); stage != "" {
				fields["stage"] = stage
			}
			telemetry.Error("http.panic", fields)

			var details any
			if reqID != "" {
				details = gin.H{"requestId": reqID}
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", details)
		}()
		c.Next()
	}
}
