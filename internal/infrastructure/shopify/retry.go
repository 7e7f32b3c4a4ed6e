package shopify

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the attempts made for one upstream call
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
}

// DefaultRetryConfig makes 3 attempts, waiting 2s then 4s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		Multiplier:     2,
	}
}

// retryAfterBackOff stretches the next delay when the upstream asked for a longer pause.
type retryAfterBackOff struct {
	backoff.BackOff
	minNext time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if b.minNext > next {
		next = b.minNext
	}
	b.minNext = 0
	return next
}

func (c RetryConfig) newBackOff(ctx context.Context) (*retryAfterBackOff, backoff.BackOffContext) {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.InitialBackoff),
		backoff.WithMultiplier(c.Multiplier),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(time.Hour),
		backoff.WithMaxElapsedTime(0),
	)
	ra := &retryAfterBackOff{BackOff: backoff.WithMaxRetries(exp, uint64(attempts-1))}
	return ra, backoff.WithContext(ra, ctx)
}
