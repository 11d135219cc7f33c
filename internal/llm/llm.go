package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"discovery-backend/internal/shared/metrics"
)

// Generator is a fallible text-in, text-out generative capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrNotConfigured is returned when no provider credential is configured.
	ErrNotConfigured = errors.New("generative capability not configured")

	// ErrTimeout marks a call that exceeded its deadline.
	ErrTimeout = errors.New("generative call timed out")

	// ErrResponseTooLarge is returned when a provider body exceeds MaxResponseBytes.
	ErrResponseTooLarge = errors.New("generative response too large")
)

// MaxResponseBytes caps a provider response body. Replies here are a category
// number or a short JSON object.
const MaxResponseBytes = 2 << 20

// ReadResponse reads a provider body up to MaxResponseBytes.
func ReadResponse(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxResponseBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, MaxResponseBytes)
	}
	return body, nil
}

// Unavailable is the Generator used when no provider is configured.
type Unavailable struct{}

// Generate returns ErrNotConfigured.
func (Unavailable) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

// Available reports whether g can be called at all.
func Available(g Generator) bool {
	if g == nil {
		return false
	}
	_, placeholder := g.(Unavailable)
	return !placeholder
}

// Call invokes g once under an optional timeout. Deadline overruns are reported
// as ErrTimeout; parent cancellation is passed through unchanged.
func Call(ctx context.Context, g Generator, prompt string, timeout time.Duration, purpose string) (string, error) {
	if !Available(g) {
		return "", ErrNotConfigured
	}
	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	start := time.Now()
	out, err := g.Generate(callCtx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, err)
		}
		metrics.ObserveLLMCall(purpose, outcome(err), elapsed)
		return "", err
	}
	metrics.ObserveLLMCall(purpose, "ok", elapsed)
	return out, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
