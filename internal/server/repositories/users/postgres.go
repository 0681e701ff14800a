package users

import (
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

var postgresDialect = &dialect{
	insertUser: `INSERT INTO users (username, password_hash, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
	updateUser: `UPDATE users SET username = $1, password_hash = $2, expires_at = $3
		 WHERE id = $4`,
	selectByUsername: `SELECT id, username, password_hash, expires_at FROM users
		 WHERE username = $1`,
	selectByID: `SELECT id, username, password_hash, expires_at FROM users
		 WHERE id = $1`,
	selectAll: `SELECT id, username, password_hash, expires_at FROM users
		 ORDER BY id`,
	selectAuthorities: `SELECT authority FROM user_authorities
		 WHERE user_id = $1 ORDER BY authority`,
	selectAllAuth: `SELECT user_id, authority FROM user_authorities
		 ORDER BY user_id, authority`,
	deleteAuthorities: `DELETE FROM user_authorities WHERE user_id = $1`,
	insertAuthority:   `INSERT INTO user_authorities (user_id, authority) VALUES ($1, $2)`,

	expiresArg: func(t time.Time) any {
		if t.IsZero() {
			return nil
		}
		return t.UTC()
	},
	expiresScanner: func() expiresScanner { return &nullTimeScanner{} },
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

type nullTimeScanner struct{ v sql.NullTime }

func (s *nullTimeScanner) dest() any { return &s.v }

func (s *nullTimeScanner) value() time.Time {
	if !s.v.Valid {
		return time.Time{}
	}
	return s.v.Time
}

// NewPostgresRepository returns a Repository over PostgreSQL (pgx driver).
func NewPostgresRepository(db dbx.DBTX) Repository {
	return &sqlRepository{db: db, d: postgresDialect}
}
