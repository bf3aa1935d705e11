// Package repository declares the storage contracts the service layer
// depends on. Implementations live in the sqlite and postgres subpackages.
//
// Every implementation translates driver errors into apperror values:
// missing rows become ErrNotFound, unique violations become ErrConflict
// (with the offending field), and anything else becomes ErrStorage.
package repository

import (
	"context"

	"github.com/sakif/anonbox/internal/model"
)

type UserRepository interface {
	// CreateUser inserts user and fills in ID and CreatedAt. Uniqueness of
	// username, email, and slug is enforced atomically by the store.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserBySlug(ctx context.Context, slug string) (*model.User, error)
}

type MessageRepository interface {
	// CreateMessage inserts msg and fills in ID and CreatedAt.
	CreateMessage(ctx context.Context, msg *model.Message) error
	// ListMessagesByUser returns the user's messages, newest first.
	ListMessagesByUser(ctx context.Context, userID string) ([]model.Message, error)
}

// Store is a complete storage backend.
type Store interface {
	UserRepository
	MessageRepository
	Ping(ctx context.Context) error
	Close() error
}
