package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/senpaisearch/apiserver/internal/auth"
	"github.com/senpaisearch/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "current_user"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// userFromContext returns the authenticated user stored by the auth
// middleware, if any.
func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

// clientIP returns the client address without the port. The router runs
// chi's RealIP middleware, so RemoteAddr already reflects forwarded
// headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeAuthError maps the authentication/authorization error family onto
// its response codes, falling back to a generic 500. Auth failures keep
// their fixed, non-leaky messages.
func writeAuthError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, auth.ErrForbidden.Error())
	case errors.Is(err, auth.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, auth.ErrDuplicateUsername.Error())
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, auth.ErrDuplicateEmail.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
