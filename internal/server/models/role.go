package models

import "fmt"

// Role is a closed set of roles a user can hold. Each role maps to exactly
// one authority string, "ROLE_" followed by its name.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// AuthorityPrefix is prepended to a role name to form its authority string.
const AuthorityPrefix = "ROLE_"

var roleNames = map[Role]string{
	RoleUser:  "USER",
	RoleAdmin: "ADMIN",
}

// AllRoles lists every known role in declaration order.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// String returns the role name ("USER", "ADMIN").
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// IsValid reports whether r is one of the declared roles.
func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// Authority returns the authority string granted by this role.
func (r Role) Authority() string {
	return AuthorityPrefix + r.String()
}

// AsAuthorityFor builds the grant of this role to userID.
func (r Role) AsAuthorityFor(userID int64) Authority {
	return Authority{UserID: userID, Authority: r.Authority()}
}

// UnknownRoleError is returned when a role name is not part of the closed set.
type UnknownRoleError struct {
	Name string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("no role named %q", e.Name)
}

// UnknownAuthorityError is returned when an authority string does not map
// back to a known role.
type UnknownAuthorityError struct {
	Authority string
}

func (e *UnknownAuthorityError) Error() string {
	return fmt.Sprintf("no role defined for authority: %s", e.Authority)
}

// ParseRole maps a role name ("ADMIN") to its Role.
func ParseRole(name string) (Role, error) {
	for r, n := range roleNames {
		if n == name {
			return r, nil
		}
	}
	return 0, &UnknownRoleError{Name: name}
}

// RoleFromAuthority maps an authority string ("ROLE_ADMIN") to its Role.
func RoleFromAuthority(authority string) (Role, error) {
	for r := range roleNames {
		if r.Authority() == authority {
			return r, nil
		}
	}
	return 0, &UnknownAuthorityError{Authority: authority}
}

// MustRoleFromAuthority is RoleFromAuthority for authority strings that come
// from code, not from input. It panics on an unknown authority.
func MustRoleFromAuthority(authority string) Role {
	r, err := RoleFromAuthority(authority)
	if err != nil {
		panic(err)
	}
	return r
}
