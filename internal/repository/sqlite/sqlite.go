// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary needs no C compiler
// and cross-compiles anywhere Go does.
//
// DATABASE/SQL OVERVIEW:
// sql.DB is a connection pool, not a single connection. Each query borrows
// a connection and gives it back when it finishes (for multi-row queries,
// when rows.Close() runs). The server owns one pool for its lifetime.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and brings its schema
// up to date.
//
// dbPath examples:
//   - "data/anonbox.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
//
// PRAGMAS:
// Pragmas are per connection, so they go into the DSN where the driver
// applies them to every connection the pool opens:
//   - foreign_keys(1): messages.user_id must point at a real user
//   - busy_timeout(5000): wait for a writer instead of failing with SQLITE_BUSY
//   - journal_mode(WAL): readers don't block on a writer (file databases only)
func New(dbPath string) (*DB, error) {
	inMemory := dbPath == ":memory:"

	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if !inMemory {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	dsn := dbPath + sep + strings.Join(pragmas, "&")

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a brand-new empty database, so an
	// in-memory pool must never hold more than one connection.
	if inMemory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperror.Storage("ping", err)
	}
	return nil
}

// migrate applies the embedded goose migrations. goose records applied
// versions in its own table, so this is safe to run on every start.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// uniqueViolation reports whether err is a UNIQUE constraint failure on
// table and, if so, which of columns caused it. SQLite names the column in
// the message, e.g. "UNIQUE constraint failed: users.email".
func uniqueViolation(err error, table string, columns ...string) (column string, ok bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return "", false
	}

	msg := sqliteErr.Error()
	for _, c := range columns {
		if strings.Contains(msg, table+"."+c) {
			return c, true
		}
	}
	return "", true
}
