package shopify

import (
	"context"
	"sync"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per shop, mirroring Shopify's leaky bucket
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	logger   zerolog.Logger
}

// NewRateLimiter creates a limiter allowing perSecond requests per shop with the given burst
func NewRateLimiter(perSecond float64, burst int, logger zerolog.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		logger:   logger,
	}
}

// Wait blocks until the shop's bucket has a token or ctx ends
func (rl *RateLimiter) Wait(ctx context.Context, shop string) error {
	return rl.limiterFor(shop).Wait(ctx)
}

// Observe logs the call-limit usage reported by the shop's last response
func (rl *RateLimiter) Observe(shop string, limits goshopify.RateLimitInfo) {
	if limits.BucketSize == 0 {
		return
	}
	rl.logger.Debug().
		Str("shop", shop).
		Int("used", limits.RequestCount).
		Int("bucket", limits.BucketSize).
		Msg("Shopify call limit")
}

func (rl *RateLimiter) limiterFor(shop string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[shop]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[shop] = l
	}
	return l
}
