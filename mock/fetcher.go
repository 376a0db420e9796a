package mock

import (
	"context"

	"github.com/fwojciec/sapnhap"
)

var _ sapnhap.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of sapnhap.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ sapnhap.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of sapnhap.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context, url string) error
}

func (r *RateLimiter) Wait(ctx context.Context, url string) error {
	return r.WaitFn(ctx, url)
}
