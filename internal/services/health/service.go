package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB Pinger
	// Catalog names the active catalog backend, "postgres" or "memory".
	Catalog string
	// LLMProvider is "none" when recommendations run in fallback only.
	LLMProvider  string
	MoodsVersion string
	// BreakerState reports the generative breaker, when one is configured.
	BreakerState func() string
}

// Status is the health payload.
type Status struct {
	OK      bool              `json:"ok"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"moodsVersion,omitempty"`
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{Catalog: "memory", LLMProvider: "none"}
}

// Status reports liveness plus dependency details. A failed database ping
// marks the service unhealthy; a degraded LLM does not.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Version: s.MoodsVersion, Checks: map[string]string{
		"catalog": s.Catalog,
		"llm":     s.LLMProvider,
	}}
	if s.DB != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.DB.PingContext(pingCtx); err != nil {
			st.OK = false
			st.Checks["database"] = "unreachable"
		} else {
			st.Checks["database"] = "ok"
		}
	}
	if s.BreakerState != nil {
		st.Checks["llm_breaker"] = s.BreakerState()
	}
	return st
}
