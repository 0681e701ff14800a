package users

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteDialect = &dialect{
	insertUser: `INSERT INTO users (username, password_hash, expires_at)
		 VALUES (?, ?, ?)
		 RETURNING id`,
	updateUser: `UPDATE users SET username = ?, password_hash = ?, expires_at = ?
		 WHERE id = ?`,
	selectByUsername: `SELECT id, username, password_hash, expires_at FROM users
		 WHERE username = ?`,
	selectByID: `SELECT id, username, password_hash, expires_at FROM users
		 WHERE id = ?`,
	selectAll: `SELECT id, username, password_hash, expires_at FROM users
		 ORDER BY id`,
	selectAuthorities: `SELECT authority FROM user_authorities
		 WHERE user_id = ? ORDER BY authority`,
	selectAllAuth: `SELECT user_id, authority FROM user_authorities
		 ORDER BY user_id, authority`,
	deleteAuthorities: `DELETE FROM user_authorities WHERE user_id = ?`,
	insertAuthority:   `INSERT INTO user_authorities (user_id, authority) VALUES (?, ?)`,

	// expires_at is stored as unix milliseconds.
	expiresArg: func(t time.Time) any {
		if t.IsZero() {
			return nil
		}
		return t.UnixMilli()
	},
	expiresScanner: func() expiresScanner { return &unixMilliScanner{} },
	isUniqueViolation: func(err error) bool {
		var sqErr *sqlite.Error
		if !errors.As(err, &sqErr) {
			return false
		}
		switch sqErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqErr.Error(), "UNIQUE constraint failed")
		}
		return false
	},
}

type unixMilliScanner struct{ v sql.NullInt64 }

func (s *unixMilliScanner) dest() any { return &s.v }

func (s *unixMilliScanner) value() time.Time {
	if !s.v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(s.v.Int64).UTC()
}

// NewSQLiteRepository returns a Repository over SQLite (modernc driver).
func NewSQLiteRepository(db dbx.DBTX) Repository {
	return &sqlRepository{db: db, d: sqliteDialect}
}
