// Package services contains server-side business logic. UserService covers
// credential checks, the caller's own account and role administration.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
	"github.com/dmitrijs2005/statelessauth/internal/server/passwords"
	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/users"
)

// Login outcomes as reported to a LoginRecorder.
const (
	LoginSucceeded = "success"
	LoginRejected  = "rejected"
	LoginFailed    = "error"
)

// LoginRecorder observes login attempts.
type LoginRecorder interface {
	LoginAttempted(outcome string)
}

type nopLoginRecorder struct{}

func (nopLoginRecorder) LoginAttempted(string) {}

// CurrentUser is the caller's own view of their account.
type CurrentUser struct {
	Username string
	Roles    []string
}

// DefaultUser is an account created by SeedDefaults.
type DefaultUser struct {
	Username string
	Password string
	Role     models.Role
}

// DefaultUsers are seeded on first start when seeding is enabled.
var DefaultUsers = []DefaultUser{
	{Username: "admin", Password: "admin", Role: models.RoleAdmin},
	{Username: "user", Password: "user", Role: models.RoleUser},
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      *passwords.Hasher
	logger      logging.Logger
	recorder    LoginRecorder
	now         func() time.Time
}

type UserServiceOption func(*UserService)

func WithLoginRecorder(r LoginRecorder) UserServiceOption {
	return func(s *UserService) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithUserServiceClock(now func() time.Time) UserServiceOption {
	return func(s *UserService) { s.now = now }
}

func NewUserService(m repomanager.RepositoryManager, hasher *passwords.Hasher, logger logging.Logger, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
		recorder:    nopLoginRecorder{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks username and password. Every credential failure, including
// an unknown user or an account past its expiry, is ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repomanager.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			s.recorder.LoginAttempted(LoginRejected)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		s.recorder.LoginAttempted(LoginFailed)
		return nil, common.ErrorInternal
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		if !errors.Is(err, passwords.ErrMismatch) {
			s.logger.Error(ctx, "password check failed", "username", username, "error", err)
		}
		s.recorder.LoginAttempted(LoginRejected)
		return nil, common.ErrorUnauthorized
	}

	if u.Expired(s.now()) {
		s.recorder.LoginAttempted(LoginRejected)
		return nil, common.ErrorUnauthorized
	}

	s.recorder.LoginAttempted(LoginSucceeded)
	return u.WithoutCredentials(), nil
}

// Current describes the authenticated caller, or the anonymous user.
func (s *UserService) Current(_ context.Context, res auth.AuthResult) CurrentUser {
	return CurrentUser{Username: res.Name(), Roles: res.RoleNames()}
}

// ChangePassword replaces the password of username after checking the
// current one. It returns the updated user without credentials.
func (s *UserService) ChangePassword(ctx context.Context, username, current, newPassword string) (*models.User, error) {
	if newPassword == "" {
		return nil, passwords.ErrEmptyPassword
	}

	var updated *models.User
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.FindByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return err
		}

		if err := s.hasher.Compare(u.PasswordHash, current); err != nil {
			return common.ErrorUnauthorized
		}

		u.NewPassword = newPassword
		hash, err := s.hasher.Hash(u.NewPassword)
		u.NewPassword = ""
		if err != nil {
			return err
		}
		u.PasswordHash = hash

		saved, err := repo.Save(ctx, u)
		if err != nil {
			return err
		}
		updated = saved.WithoutCredentials()
		return nil
	})
	if err != nil {
		return nil, s.publicError(ctx, "change password", err)
	}

	s.logger.Info(ctx, "password changed", "username", username)
	return updated, nil
}

// List returns every user without credentials, ordered by id.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users().List(ctx)
	if err != nil {
		return nil, s.publicError(ctx, "list users", err)
	}
	out := make([]*models.User, 0, len(list))
	for _, u := range list {
		out = append(out, u.WithoutCredentials())
	}
	return out, nil
}

// GrantRole adds the named role to user id.
func (s *UserService) GrantRole(ctx context.Context, id int64, roleName string) (*models.User, error) {
	return s.updateRoles(ctx, id, roleName, (*models.User).GrantRole)
}

// RevokeRole removes the named role from user id.
func (s *UserService) RevokeRole(ctx context.Context, id int64, roleName string) (*models.User, error) {
	return s.updateRoles(ctx, id, roleName, (*models.User).RevokeRole)
}

func (s *UserService) updateRoles(ctx context.Context, id int64, roleName string, apply func(*models.User, models.Role)) (*models.User, error) {
	role, err := models.ParseRole(roleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	var updated *models.User
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		apply(u, role)
		saved, err := repo.Save(ctx, u)
		if err != nil {
			return err
		}
		updated = saved.WithoutCredentials()
		return nil
	})
	if err != nil {
		return nil, s.publicError(ctx, "update roles", err)
	}

	s.logger.Info(ctx, "roles updated", "user_id", id, "roles", updated.RoleNames())
	return updated, nil
}

// SeedDefaults creates DefaultUsers that do not exist yet.
func (s *UserService) SeedDefaults(ctx context.Context) error {
	return s.repomanager.WithTx(ctx, func(ctx context.Context, repo users.Repository) error {
		for _, d := range DefaultUsers {
			_, err := repo.FindByUsername(ctx, d.Username)
			if err == nil {
				continue
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}

			hash, err := s.hasher.Hash(d.Password)
			if err != nil {
				return err
			}
			u := models.NewUser(d.Username, time.Time{})
			u.PasswordHash = hash
			u.GrantRole(d.Role)
			if _, err := repo.Save(ctx, u); err != nil {
				return fmt.Errorf("seed %s: %w", d.Username, err)
			}
			s.logger.Info(ctx, "default user created", "username", d.Username, "role", d.Role.String())
		}
		return nil
	})
}

// publicError passes domain errors through and hides everything else
// behind ErrorInternal after logging it.
func (s *UserService) publicError(ctx context.Context, op string, err error) error {
	for _, known := range []error{
		common.ErrorUnauthorized, common.ErrorNotFound, common.ErrorValidation,
		common.ErrorAlreadyExists, common.ErrorForbidden,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
