package sapnhap

import "context"

// Fetcher retrieves page content from URLs.
type Fetcher interface {
	// Fetch performs a single GET and returns the body decoded as UTF-8.
	// Failures are returned as *FetchError so callers can classify them.
	// The context controls cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// RateLimiter paces requests to the upstream service.
type RateLimiter interface {
	// Wait blocks until a request to the URL's host is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, url string) error
}

// Checkpointer persists a full snapshot of the records collected so far.
type Checkpointer interface {
	// Checkpoint writes the snapshot taken after n processed provinces
	// and returns where it was written.
	Checkpoint(ctx context.Context, n int, records []*MergerRecord) (string, error)
}
