package types

import "time"

// RoleAdmin is both the default role for new registrations and the role
// that bypasses the search rate limiter.
const RoleAdmin = "admin"

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. It doubles as the subject of
	// issued access tokens, so it must be unique.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system.
	// New registrations default to "admin".
	Role string `json:"role" db:"role"`

	// IsSuperuser marks accounts allowed to list all users and to
	// create accounts with elevated privileges.
	IsSuperuser bool `json:"is_superuser" db:"is_superuser"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
