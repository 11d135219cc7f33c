package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"discovery-backend/internal/shared/telemetry"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("generative capability circuit open")

// BreakerConfig controls when the breaker trips and how long it stays open.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Cooldown         time.Duration
	HalfOpenRequests uint32
}

// Breaker fails fast after consecutive provider failures. It never retries.
type Breaker struct {
	base Generator
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreaker wraps base. Caller cancellation does not count as a provider failure.
func NewBreaker(base Generator, cfg BreakerConfig) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Warn("llm.breaker.state", map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	return &Breaker{
		base: base,
		cb:   gobreaker.NewCircuitBreaker[string](settings),
	}
}

// Generate runs the wrapped call through the breaker.
func (b *Breaker) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (string, error) {
		return b.base.Generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return out, err
}

// State reports the breaker state for diagnostics.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

var _ Generator = (*Breaker)(nil)
