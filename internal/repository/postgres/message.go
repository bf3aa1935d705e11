package postgres

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/model"
)

func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, text, created_at) VALUES ($1, $2, $3, $4)`,
		msg.ID,
		msg.UserID,
		msg.Text,
		msg.CreatedAt,
	)
	if err != nil {
		return apperror.Storage("insert message", err)
	}

	return nil
}

// ListMessagesByUser returns userID's inbox newest first, id breaking ties.
func (db *DB) ListMessagesByUser(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, text, created_at
		 FROM messages
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, apperror.Storage("list messages", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, apperror.Storage("scan message", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterate messages", err)
	}

	return messages, nil
}
