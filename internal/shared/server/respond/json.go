package respond

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with the given status. Responses depend on the caller's
// position and the live catalog, so they are marked uncacheable.
func JSON(c *gin.Context, status int, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, payload)
}

// OK writes a 200 JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Cached writes a 200 JSON response that clients may reuse for maxAge.
// Only for data fixed for the life of the process, such as the mood table.
func Cached(c *gin.Context, payload any, maxAge time.Duration) {
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	c.JSON(http.StatusOK, payload)
}
