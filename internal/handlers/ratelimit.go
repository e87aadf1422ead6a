package handlers

import (
	"errors"
	"net/http"

	"github.com/senpaisearch/apiserver/internal/ratelimit"
	"github.com/senpaisearch/apiserver/types"
)

// RateLimit guards an endpoint with a per-client-IP fixed-window counter.
// The bypass for authenticated admin-role callers is unconditional and
// checked before any counter logic, so privileged traffic never touches
// the counters.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := userFromContext(r.Context()); ok && user.Role == types.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			if err := limiter.Allow(r.Context(), clientIP(r)); err != nil {
				if errors.Is(err, ratelimit.ErrRateLimited) {
					writeError(w, http.StatusTooManyRequests, ratelimit.ErrRateLimited.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to check rate limit")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
