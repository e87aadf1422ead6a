package auth

import "github.com/senpaisearch/apiserver/types"

// RequireSuperuser fails with ErrForbidden unless the user carries the
// superuser flag. Gates user listing and elevated account creation.
func RequireSuperuser(u types.User) error {
	if !u.IsSuperuser {
		return ErrForbidden
	}
	return nil
}

// RequireSelf fails with ErrForbidden unless the user is the target
// account. Account update and delete go through this check only: even a
// superuser cannot modify another user's record here. Ownership, not
// role, is the controlling check on this path.
func RequireSelf(u types.User, targetID int) error {
	if u.ID != targetID {
		return ErrForbidden
	}
	return nil
}

// RequireOwnerOrRole fails with ErrForbidden unless the user owns the
// resource or holds the required role. This is a separate authorization
// axis from the superuser flag.
func RequireOwnerOrRole(u types.User, ownerID int, role string) error {
	if u.ID == ownerID {
		return nil
	}
	if u.Role == role {
		return nil
	}
	return ErrForbidden
}
