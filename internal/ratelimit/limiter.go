// Package ratelimit provides a fixed-window request counter keyed by
// client IP. It guards the public catalog search endpoint; authenticated
// callers holding the admin role bypass it entirely.
package ratelimit

import (
	"context"
	"errors"
)

// ErrRateLimited is returned when a client has exhausted its window quota.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter counts requests per client key over a fixed window.
type Limiter interface {
	// Allow records one request for the key. It returns ErrRateLimited
	// when the key has already used up the current window, leaving the
	// counter unchanged.
	Allow(ctx context.Context, key string) error
}
