package auth

import (
	"context"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
)

// AuthResult is who a request comes from. The zero value is anonymous.
type AuthResult struct {
	Username  string
	Roles     []models.Role
	ExpiresAt time.Time
}

// Anonymous returns the result for a request without a valid token.
func Anonymous() AuthResult {
	return AuthResult{}
}

// resultFromUser never yields roles without a username.
func resultFromUser(u *models.User) AuthResult {
	if u == nil || u.Username == "" {
		return Anonymous()
	}
	roles, _ := u.Roles()
	return AuthResult{Username: u.Username, Roles: roles, ExpiresAt: u.ExpiresAt}
}

// IsAuthenticated reports whether a valid token was presented.
func (a AuthResult) IsAuthenticated() bool {
	return a.Username != ""
}

// Name is the username, or common.AnonymousUserName for anonymous callers.
func (a AuthResult) Name() string {
	if !a.IsAuthenticated() {
		return common.AnonymousUserName
	}
	return a.Username
}

// HasRole reports whether the result carries r.
func (a AuthResult) HasRole(r models.Role) bool {
	for _, have := range a.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// RoleNames lists role names; never nil.
func (a AuthResult) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		names = append(names, r.String())
	}
	return names
}

type resultContextKey struct{}

// WithResult returns a copy of ctx carrying res.
func WithResult(ctx context.Context, res AuthResult) context.Context {
	return context.WithValue(ctx, resultContextKey{}, res)
}

// ResultFromContext returns the AuthResult installed by the filter.
func ResultFromContext(ctx context.Context) (AuthResult, bool) {
	res, ok := ctx.Value(resultContextKey{}).(AuthResult)
	return res, ok
}

// CurrentResult is ResultFromContext defaulting to Anonymous.
func CurrentResult(ctx context.Context) AuthResult {
	res, _ := ResultFromContext(ctx)
	return res
}
