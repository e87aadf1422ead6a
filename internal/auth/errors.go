package auth

import "errors"

// ErrInvalidCredentials covers every authentication failure: bad password,
// malformed token, bad signature, expired token, missing subject, and a
// valid token whose account no longer exists. Callers must not be able to
// tell these apart.
var ErrInvalidCredentials = errors.New("could not validate credentials")

// ErrForbidden is returned when an authenticated user lacks the role or
// ownership required for an operation.
var ErrForbidden = errors.New("not enough permissions")

// Registration conflicts are reported per field, username checked first.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)
