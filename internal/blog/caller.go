package blog

import "github.com/google/uuid"

// Caller is the authenticated identity an operation runs on behalf of.
// The zero value is an anonymous visitor.
type Caller struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Authenticated reports whether the caller is signed in.
func (c Caller) Authenticated() bool {
	return c.UserID != uuid.Nil
}

// canModify reports whether the caller may change something owned by ownerID.
func (c Caller) canModify(ownerID uuid.UUID) bool {
	return c.Authenticated() && (c.IsAdmin || c.UserID == ownerID)
}

func (c Caller) requireAuth() error {
	if !c.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func (c Caller) requireAdmin() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if !c.IsAdmin {
		return Forbiddenf("admin privileges required")
	}
	return nil
}
