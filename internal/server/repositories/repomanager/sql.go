package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/statelessauth/internal/dbx"
	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/migrations"
	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends repositories over a database/sql pool and
// applies the embedded goose migrations for its dialect.
type SQLRepositoryManager struct {
	db           *sql.DB
	gooseDialect string
	migrationDir string
	newUsers     func(dbx.DBTX) users.Repository
	logger       logging.Logger
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepositoryManager opens a pgx-backed pool.
func NewPostgresRepositoryManager(dsn string, logger logging.Logger) (*SQLRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return newSQLRepositoryManager(db, "pgx", migrations.PostgresDir, users.NewPostgresRepository, logger), nil
}

// NewSQLiteRepositoryManager opens a SQLite database. SQLite allows a
// single writer, so the pool is limited to one connection.
func NewSQLiteRepositoryManager(dsn string, logger logging.Logger) (*SQLRepositoryManager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(1)
	return newSQLRepositoryManager(db, "sqlite3", migrations.SQLiteDir, users.NewSQLiteRepository, logger), nil
}

func newSQLRepositoryManager(db *sql.DB, dialect, dir string, newUsers func(dbx.DBTX) users.Repository, logger logging.Logger) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:           db,
		gooseDialect: dialect,
		migrationDir: dir,
		newUsers:     newUsers,
		logger:       logger.With("module", "repomanager", "dialect", dialect),
	}
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.newUsers(m.db)
}

func (m *SQLRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.newUsers(tx))
	})
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: m.logger})
	if err := goose.SetDialect(m.gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, m.migrationDir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseLogger routes goose progress output into the service log.
type gooseLogger struct {
	logger logging.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(context.Background(), fmt.Sprintf(format, v...))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(context.Background(), fmt.Sprintf(format, v...))
}
