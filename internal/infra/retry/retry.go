// Package retry runs an operation again when it fails with a transient error.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy is a stateless retry strategy. The zero value makes a single attempt.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool
}

// Do calls fn until it succeeds, returns a non-retryable error, or the retries are used up.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := 1
	if p.MaxRetries > 0 {
		attempts += p.MaxRetries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			return err
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// Delay is the wait before the attempt that follows attempt (starting at 1):
// exponential growth from BaseDelay, capped at MaxDelay, with 0.7..1.3 jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	maxD := p.MaxDelay
	if maxD <= 0 {
		maxD = 30 * time.Second
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxD {
			d = maxD
			break
		}
	}
	d = time.Duration(float64(d) * (0.7 + rand.Float64()*0.6))
	if d > maxD {
		d = maxD
	}
	return d
}
