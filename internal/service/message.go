package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/model"
	"github.com/sakif/anonbox/internal/repository"
)

// MaxMessageLength is counted in runes.
const MaxMessageLength = 500

// MessageService posts and lists anonymous messages. Messages carry no
// sender; the only identity involved is the recipient's.
type MessageService struct {
	users    repository.UserRepository
	messages repository.MessageRepository
	logger   *slog.Logger
}

func NewMessageService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		users:    users,
		messages: messages,
		logger:   logger,
	}
}

// Inbox is a recipient's public view together with their messages.
type Inbox struct {
	User     model.PublicUser
	Messages []model.Message
}

// Post stores text for the user behind recipientSlug. The text is validated
// before any lookup so an invalid message never reaches storage.
func (s *MessageService) Post(ctx context.Context, recipientSlug, text string) (*model.Message, error) {
	if err := validateMessageText(text); err != nil {
		return nil, err
	}

	recipient, err := s.users.GetUserBySlug(ctx, recipientSlug)
	if err != nil {
		return nil, fmt.Errorf("service/message: resolving %q: %w", recipientSlug, err)
	}

	msg := &model.Message{
		UserID: recipient.ID,
		Text:   text,
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("failed to store message",
			slog.String("recipient", recipient.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/message: storing message: %w", err)
	}

	s.logger.Debug("message posted",
		slog.String("messageID", msg.ID),
		slog.String("recipient", recipient.ID),
	)
	return msg, nil
}

// ListBySlug returns the inbox of the user owning slug, newest first.
func (s *MessageService) ListBySlug(ctx context.Context, slug string) (*Inbox, error) {
	user, err := s.users.GetUserBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("service/message: resolving %q: %w", slug, err)
	}

	msgs, err := s.messages.ListMessagesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing for %s: %w", user.ID, err)
	}

	return &Inbox{User: user.Public(), Messages: msgs}, nil
}

// ListForUser returns userID's messages, newest first. userID must come from
// verified token claims.
func (s *MessageService) ListForUser(ctx context.Context, userID string) ([]model.Message, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("missing user id", nil)
	}

	msgs, err := s.messages.ListMessagesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing for %s: %w", userID, err)
	}
	return msgs, nil
}

func validateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperror.ValidationFailed("text", "message text is required")
	}
	// Postgres TEXT cannot hold U+0000; reject it for every store alike.
	if strings.ContainsRune(text, 0) {
		return apperror.ValidationFailed("text", "message must not contain NUL characters")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
	}
	return nil
}
