// Package models holds the server-side identity types: users, their role
// grants and the closed role enumeration.
package models

import "time"

// User is a principal. PasswordHash and NewPassword are credential
// material and never leave the server inside a token.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	// NewPassword is set only while a password change is in flight.
	NewPassword string
	// ExpiresAt is the instant after which tokens for this user are
	// rejected. The zero value means no per-user limit.
	ExpiresAt   time.Time
	Authorities []Authority
}

// NewUser returns an unsaved user with the given name and expiry.
func NewUser(username string, expiresAt time.Time) *User {
	return &User{Username: username, ExpiresAt: expiresAt}
}

// GrantRole adds the role's authority unless the user already holds it.
func (u *User) GrantRole(r Role) {
	a := r.AsAuthorityFor(u.ID)
	if indexOfAuthority(u.Authorities, a) >= 0 {
		return
	}
	u.Authorities = append(u.Authorities, a)
}

// RevokeRole removes the role's authority if present.
func (u *User) RevokeRole(r Role) {
	i := indexOfAuthority(u.Authorities, r.AsAuthorityFor(u.ID))
	if i < 0 {
		return
	}
	u.Authorities = append(u.Authorities[:i:i], u.Authorities[i+1:]...)
}

// HasRole reports whether the user holds the role's authority.
func (u *User) HasRole(r Role) bool {
	return indexOfAuthority(u.Authorities, r.AsAuthorityFor(u.ID)) >= 0
}

// Roles decodes the user's authorities. An authority outside the known
// role set yields an *UnknownAuthorityError.
func (u *User) Roles() ([]Role, error) {
	roles := make([]Role, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		r, err := RoleFromAuthority(a.Authority)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// RoleNames returns the names of the user's roles, skipping authorities
// that do not map to a role.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		if r, err := RoleFromAuthority(a.Authority); err == nil {
			names = append(names, r.String())
		}
	}
	return names
}

// Expired reports whether the user's own expiry has passed at now.
func (u *User) Expired(now time.Time) bool {
	return !u.ExpiresAt.IsZero() && !now.Before(u.ExpiresAt)
}

// WithoutCredentials returns a copy with password material cleared.
func (u *User) WithoutCredentials() *User {
	c := *u
	c.PasswordHash = ""
	c.NewPassword = ""
	c.Authorities = append([]Authority(nil), u.Authorities...)
	return &c
}
