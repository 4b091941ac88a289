package collector

import (
	"context"
	"errors"
	"time"

	"github.com/petrescueapp/data-collector/internal/scrape"
)

// retryPolicy bounds the listing-step retries: network failures only, a
// fixed attempt cap, and a synchronous doubling backoff (2s, 4s, ...).
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

func newRetryPolicy(maxAttempts int, baseDelay time.Duration) *retryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &retryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// ShouldRetry accepts the 1-based attempt number that just failed.
func (p *retryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr *scrape.NetworkError
	return errors.As(err, &netErr)
}

// Backoff returns the delay after the given failed attempt.
func (p *retryPolicy) Backoff(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// pause sleeps for the given duration, waking early if the context ends.
func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
