package crawl

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/sapnhap"
	"golang.org/x/time/rate"
)

var _ sapnhap.RateLimiter = (*Limiter)(nil)

// Limiter caps the request rate per host using token buckets with a burst
// of 1. The crawler talks to a single host, so in practice this is a
// global cap.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
}

// NewLimiter creates a Limiter allowing rps requests per second to each
// host. A non-positive rps disables limiting.
func NewLimiter(rps float64) *Limiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
	}
}

// Wait blocks until a request to rawURL's host is allowed.
// Returns an error if the context is canceled before the wait completes.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.limit, 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
