package crawl

import (
	"context"
	"time"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (string, error)

// RetryFunc is called before each retry with the upcoming attempt number
// (starting at 2) and the error of the previous attempt.
type RetryFunc func(attempt int, err error)

// DefaultRetryDelays returns the backoff delays for fetch retries: 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return BackoffDelays(3, 2*time.Second)
}

// BackoffDelays returns the delays for attempts total attempts, starting at
// base and doubling after each retry.
func BackoffDelays(attempts int, base time.Duration) []time.Duration {
	if attempts <= 1 {
		return []time.Duration{}
	}
	delays := make([]time.Duration, attempts-1)
	d := base
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return delays
}

// FetchWithRetry fetches a URL with up to 3 attempts, waiting 2s and 4s
// between them.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, onRetry RetryFunc) (string, error) {
	return FetchWithRetryDelays(ctx, url, fetch, onRetry, DefaultRetryDelays())
}

// FetchWithRetryDelays is like FetchWithRetry but allows configurable delays.
// Every failure is retried until the delays are exhausted; the last error
// is returned unchanged so callers can classify it.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, onRetry RetryFunc, delays []time.Duration) (string, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		html, err := fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if onRetry != nil {
			onRetry(attempt+2, err)
		}

		if err := sleep(ctx, delays[attempt]); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
