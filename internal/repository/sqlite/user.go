package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/model"
)

const userColumns = `id, username, email, password_hash, slug, created_at`

// CreateUser inserts a new user.
//
// There is no "SELECT then INSERT" existence check: two concurrent
// registrations for the same name would both pass it. The UNIQUE
// constraints on username, email, and slug decide atomically, and the
// losing insert comes back as a Conflict naming the column.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email, // nil → NULL
		user.PasswordHash,
		user.Slug,
		user.CreatedAt,
	)
	if err != nil {
		if column, ok := uniqueViolation(err, "users", "username", "email", "slug"); ok {
			if column == "" {
				column = "username"
			}
			return apperror.Conflict("user", column)
		}
		return apperror.Storage("insert user", err)
	}

	return nil
}

// GetUserByUsername looks a user up by exact username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row, "username", username)
}

// GetUserBySlug looks a user up by public slug.
func (db *DB) GetUserBySlug(ctx context.Context, slug string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE slug = ?`, slug)
	return scanUser(row, "slug", slug)
}

func scanUser(row *sql.Row, by, key string) (*model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)

	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Slug, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", by+" "+key)
		}
		return nil, apperror.Storage("get user by "+by, err)
	}

	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}
