package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/auth"
	"github.com/sakif/anonbox/internal/model"
	"github.com/sakif/anonbox/internal/service"
)

// Inboxes is the part of service.MessageService the handler needs.
type Inboxes interface {
	Post(ctx context.Context, recipientSlug, text string) (*model.Message, error)
	ListBySlug(ctx context.Context, slug string) (*service.Inbox, error)
	ListForUser(ctx context.Context, userID string) ([]model.Message, error)
}

// MessageHandler serves the public share-link endpoints and the owner's
// inbox.
type MessageHandler struct {
	messages Inboxes
	logger   *slog.Logger
}

func NewMessageHandler(messages Inboxes, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type postMessageRequest struct {
	Text string `json:"text"`
}

type postMessageResponse struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// messageView is a message as listed to clients. The recipient is implied
// by the endpoint.
type messageView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type ownerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type publicInboxResponse struct {
	User     model.PublicUser `json:"user"`
	Messages []messageView    `json:"messages"`
}

type myInboxResponse struct {
	User     ownerView     `json:"user"`
	Messages []messageView `json:"messages"`
}

// toViews never returns nil so "messages" always encodes as an array.
func toViews(msgs []model.Message) []messageView {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{ID: m.ID, Text: m.Text, CreatedAt: m.CreatedAt})
	}
	return views
}

// HandleList returns the messages sent to the owner of {slug}.
//
// HTTP: GET /user/{slug}/messages
func (h *MessageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.messages.ListBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, publicInboxResponse{
		User:     inbox.User,
		Messages: toViews(inbox.Messages),
	})
}

// HandlePost stores an anonymous message for the owner of {slug}. Nothing
// about the sender is read or recorded.
//
// HTTP: POST /user/{slug}/messages
// Body: {"text": "..."}
func (h *MessageHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	msg, err := h.messages.Post(r.Context(), chi.URLParam(r, "slug"), req.Text)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, postMessageResponse{
		ID:     msg.ID,
		UserID: msg.UserID,
		Text:   msg.Text,
	})
}

// HandleMine returns the authenticated user's inbox.
//
// HTTP: GET /me/messages
// Auth: RequireAuth must run first; the user id comes only from the token.
func (h *MessageHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthorized("no session", nil))
		return
	}

	msgs, err := h.messages.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, myInboxResponse{
		User:     ownerView{ID: claims.UserID, Username: claims.Username},
		Messages: toViews(msgs),
	})
}
