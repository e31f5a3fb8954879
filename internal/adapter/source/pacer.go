package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RatePacer allows one request per interval. The first request is not
// delayed.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a pacer. A non-positive interval disables pacing.
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RatePacer{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the next request may be sent.
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
