package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles expensive operations, one token per call.
type Limiter struct {
	rl *rate.Limiter
}

// New creates a limiter allowing one call per interval with the given
// burst headroom.
func New(interval time.Duration, burst int) *Limiter {
	return &Limiter{rl: rate.NewLimiter(rate.Every(interval), burst)}
}

// Allow reports whether a call may proceed right now.
func (l *Limiter) Allow() bool {
	return l.rl.Allow()
}

// Wait blocks until a call may proceed or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}
