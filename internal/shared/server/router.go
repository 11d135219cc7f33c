package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/recommend"
	"discovery-backend/internal/services/health"
	"discovery-backend/internal/shared/config"
	"discovery-backend/internal/shared/metrics"
	"discovery-backend/internal/shared/server/middleware"
	"discovery-backend/internal/shared/server/respond"
)

const (
	rateGroupDefault   = "DEFAULT"
	rateGroupRecommend = "RECOMMEND"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config           config.Config
	CatalogHandler   *catalog.Handler
	RecommendHandler *recommend.Handler
	Health           *health.Service
	// RateLimiter is optional; tests inject one with a fixed clock.
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigins),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		st := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})

	limited := api.Group("")
	limited.Use(middleware.RateLimit(rateLimitConfig(cfg, deps.RateLimiter)))
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterRoutes(limited)
	}
	if deps.RecommendHandler != nil {
		deps.RecommendHandler.RegisterRoutes(limited)
	}

	return r
}

// Recommendations cost an LLM round trip, so they get the configured budget;
// cheap catalog reads get ten times that.
func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rps, burst := cfg.RateLimit.RPS, cfg.RateLimit.Burst
	return middleware.RateLimitConfig{
		DefaultGroup: rateGroupDefault,
		Limiter:      limiter,
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/recommendations" {
				return rateGroupRecommend
			}
			return rateGroupDefault
		},
		Rules: map[string]middleware.RateLimitRule{
			rateGroupRecommend: {Rate: rps, Burst: burst},
			rateGroupDefault:   {Rate: rps * 10, Burst: burst * 10},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
