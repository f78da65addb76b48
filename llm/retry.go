package llm

import (
	"context"
	"time"
)

// Retrier performs bounded exponential backoff retries for a function.
type Retrier struct {
	cfg RetryConfig

	// Optional observability wiring; see WithNotify.
	notify func(ctx context.Context, attempt int, err error)
}

// NewRetrier creates a new Retrier with the given config (or defaults
// for zero values).
func NewRetrier(cfg RetryConfig) *Retrier {
	def := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	return &Retrier{cfg: cfg}
}

// WithNotify registers a callback invoked before each retry attempt.
// Providers use it to feed observability hooks.
func (r *Retrier) WithNotify(fn func(ctx context.Context, attempt int, err error)) *Retrier {
	r.notify = fn
	return r
}

// Do runs fn and retries on error up to MaxRetries with exponential
// backoff, honoring context cancellation between attempts.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	delay := r.cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.cfg.MaxRetries {
			return err
		}
		if r.notify != nil {
			r.notify(ctx, attempt+1, err)
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		next := time.Duration(float64(delay) * r.cfg.BackoffFactor)
		if next <= 0 || next > r.cfg.MaxDelay {
			next = r.cfg.MaxDelay
		}
		delay = next
	}
}
