package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/model"
)

// fakeUserRepo is an in-memory repository.UserRepository that enforces the
// same uniqueness rules as the real schema.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User // keyed by ID
	nextID int
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		switch {
		case u.Username == user.Username:
			return apperror.Conflict("user", "username")
		case u.Email != nil && user.Email != nil && *u.Email == *user.Email:
			return apperror.Conflict("user", "email")
		case u.Slug == user.Slug:
			return apperror.Conflict("user", "slug")
		}
	}

	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", key)
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Username == username }, username)
}

func (f *fakeUserRepo) GetUserBySlug(ctx context.Context, slug string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Slug == slug }, slug)
}

// fakeMessageRepo is an in-memory repository.MessageRepository. calls counts
// every method invocation so tests can assert storage was never touched.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []model.Message
	nextID   int
	calls    int

	createErr error
	listErr   error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (f *fakeMessageRepo) CreateMessage(ctx context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.createErr != nil {
		return f.createErr
	}
	// Zero-padded so lexical order matches insertion order.
	msg.ID = fmt.Sprintf("msg-%06d", f.nextID)
	f.nextID++
	msg.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageRepo) ListMessagesByUser(ctx context.Context, userID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Message, 0)
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeMessageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
