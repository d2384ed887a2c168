package ingest

import (
	"context"
	"fmt"
	"time"
)

// DefaultWaitAttempts bounds how often WaitFor polls before giving up.
const DefaultWaitAttempts = 25

// WaitFor polls fetch until it reports success, up to attempts tries
// spaced by interval. It returns the fetched value, or an error when the
// attempts are exhausted or ctx ends first. Zero attempts/interval fall
// back to defaults.
func WaitFor[T any](ctx context.Context, attempts int, interval time.Duration, fetch func(context.Context) (T, bool)) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = DefaultWaitAttempts
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	for i := 0; i < attempts; i++ {
		if v, ok := fetch(ctx); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(interval):
		}
	}
	return zero, fmt.Errorf("wait: no result after %d attempts", attempts)
}
