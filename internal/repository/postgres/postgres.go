// Package postgres implements the repository interfaces on PostgreSQL
// through pgx's database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ repository.Store = (*DB)(nil)

const uniqueViolationCode = "23505"

// Constraint names from 00001_create_users.sql.
var userConstraints = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
	"users_slug_key":     "slug",
}

// DB wraps a pgx-backed sql.DB pool.
type DB struct {
	conn *sql.DB
}

// New connects to the database at dsn, fails fast if it is unreachable and
// applies pending migrations.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing DSN: %w", err)
	}

	conn := stdlib.OpenDB(*cfg)
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperror.Storage("ping", err)
	}
	return nil
}

func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// uniqueViolation reports whether err is a unique_violation and, if the
// constraint is one of ours, the column it guards.
func uniqueViolation(err error) (column string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return "", false
	}
	return userConstraints[pgErr.ConstraintName], true
}
