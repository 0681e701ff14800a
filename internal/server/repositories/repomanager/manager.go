// Package repomanager selects a storage backend from the database DSN and
// vends repositories bound to it.
package repomanager

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/users"
)

// RepositoryManager owns the storage connection.
type RepositoryManager interface {
	// Users returns a repository bound to the connection pool.
	Users() users.Repository
	// WithTx runs fn with repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}

// New opens the backend named by dsn:
//
//	postgres://... or postgresql://...  PostgreSQL through pgx
//	sqlite:<path> or file:<path>        SQLite through modernc.org/sqlite
//	""                                  process memory
func New(dsn string, logger logging.Logger) (RepositoryManager, error) {
	switch {
	case dsn == "":
		return NewMemoryRepositoryManager(), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresRepositoryManager(dsn, logger)
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLiteRepositoryManager(strings.TrimPrefix(dsn, "sqlite:"), logger)
	case strings.HasPrefix(dsn, "file:"):
		return NewSQLiteRepositoryManager(dsn, logger)
	default:
		return nil, &UnsupportedDSNError{DSN: dsn}
	}
}

// UnsupportedDSNError reports a DSN whose scheme selects no backend.
type UnsupportedDSNError struct {
	DSN string
}

func (e *UnsupportedDSNError) Error() string {
	scheme, _, _ := strings.Cut(e.DSN, ":")
	return "unsupported database DSN scheme: " + scheme
}
