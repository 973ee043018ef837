package upstream

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"
)

const (
	// DefaultRetries is how many times Open retries a failed connect.
	DefaultRetries = 2
	// MaxRetries bounds configured retries.
	MaxRetries = 5

	maxBackoff = 4 * time.Second
)

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// isRetryable checks an Open failure. Only failures before any answer
// text arrived reach here, so a retry never duplicates output.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter. The
// base is short because a person is waiting on the answer.
func Backoff(attempt int) time.Duration {
	// 250ms << 4 already reaches the cap; larger shifts would overflow.
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 4 {
		attempt = 4
	}
	base := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
	if base > maxBackoff {
		base = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
