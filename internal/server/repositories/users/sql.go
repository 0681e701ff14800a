package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/dbx"
	"github.com/dmitrijs2005/statelessauth/internal/server/models"
)

// dialect carries what differs between the SQL backends: the query text
// (placeholders), how expires_at is stored and how a unique violation
// is reported by the driver.
type dialect struct {
	insertUser        string
	updateUser        string
	selectByUsername  string
	selectByID        string
	selectAll         string
	selectAuthorities string
	selectAllAuth     string
	deleteAuthorities string
	insertAuthority   string

	expiresArg        func(t time.Time) any
	expiresScanner    func() expiresScanner
	isUniqueViolation func(err error) bool
}

type expiresScanner interface {
	dest() any
	value() time.Time
}

type sqlRepository struct {
	db dbx.DBTX
	d  *dialect
}

func (r *sqlRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, r.d.selectByUsername, username)
}

func (r *sqlRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, r.d.selectByID, id)
}

func (r *sqlRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	exp := r.d.expiresScanner()

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, exp.dest())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	u.ExpiresAt = exp.value()

	auths, err := r.authorities(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Authorities = auths

	return u, nil
}

func (r *sqlRepository) authorities(ctx context.Context, userID int64) ([]models.Authority, error) {
	rows, err := r.db.QueryContext(ctx, r.d.selectAuthorities, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Authority
	for rows.Next() {
		a := models.Authority{UserID: userID}
		if err := rows.Scan(&a.Authority); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *sqlRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, r.d.selectAll)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var list []*models.User
	byID := map[int64]*models.User{}
	for rows.Next() {
		u := &models.User{}
		exp := r.d.expiresScanner()
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, exp.dest()); err != nil {
			rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.ExpiresAt = exp.value()
		list = append(list, u)
		byID[u.ID] = u
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	arows, err := r.db.QueryContext(ctx, r.d.selectAllAuth)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var a models.Authority
		if err := arows.Scan(&a.UserID, &a.Authority); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if u, ok := byID[a.UserID]; ok {
			u.Authorities = append(u.Authorities, a)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

// Save writes the user row and then replaces its authorities. Callers
// that need the two steps to be atomic run Save inside a transaction.
func (r *sqlRepository) Save(ctx context.Context, u *models.User) (*models.User, error) {
	exp := r.d.expiresArg(u.ExpiresAt)

	if u.ID == 0 {
		err := r.db.QueryRowContext(ctx, r.d.insertUser, u.Username, u.PasswordHash, exp).Scan(&u.ID)
		if err != nil {
			if r.d.isUniqueViolation(err) {
				return nil, common.ErrorAlreadyExists
			}
			return nil, fmt.Errorf("db error: %w", err)
		}
	} else {
		res, err := r.db.ExecContext(ctx, r.d.updateUser, u.Username, u.PasswordHash, exp, u.ID)
		if err != nil {
			if r.d.isUniqueViolation(err) {
				return nil, common.ErrorAlreadyExists
			}
			return nil, fmt.Errorf("db error: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, common.ErrorNotFound
		}
	}

	if _, err := r.db.ExecContext(ctx, r.d.deleteAuthorities, u.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	auths := models.DedupAuthorities(u.Authorities)
	for i := range auths {
		auths[i].UserID = u.ID
		if _, err := r.db.ExecContext(ctx, r.d.insertAuthority, u.ID, auths[i].Authority); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}
	u.Authorities = auths

	return u, nil
}
