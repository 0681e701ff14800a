// Package users stores user accounts and their role grants.
package users

import (
	"context"

	"github.com/dmitrijs2005/statelessauth/internal/server/models"
)

// Repository persists users together with their authorities.
//
// Find methods return common.ErrorNotFound for a missing user. Save
// inserts when u.ID is zero and updates otherwise; in both cases the
// stored authority set is replaced by u.Authorities. Saving a duplicate
// username yields common.ErrorAlreadyExists.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Save(ctx context.Context, u *models.User) (*models.User, error)
}
