package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces per-source politeness: at most one in-flight call at a
// time, with a minimum wall-clock interval between call starts. Waiting
// callers queue in submission order and are released as capacity frees up.
type Limiter struct {
	inflight chan struct{}
	pace     *rate.Limiter
}

func New(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		minInterval = time.Second
	}

	return &Limiter{
		inflight: make(chan struct{}, 1),
		pace:     rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Do runs fn once the single-flight slot is acquired and the minimum
// interval since the previous call start has elapsed. Returns the context
// error if the caller gives up while queued.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	select {
	case l.inflight <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.inflight }()

	if err := l.pace.Wait(ctx); err != nil {
		return err
	}

	return fn()
}
