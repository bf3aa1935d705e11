package sqlite

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/anonbox/internal/apperror"
	"github.com/sakif/anonbox/internal/model"
)

// CreateMessage inserts an anonymous message for msg.UserID.
//
// The ID comes from xid, whose leading bytes are a timestamp and whose tail
// is a process-wide counter. That makes IDs minted by one process strictly
// increasing, which ListMessagesByUser uses to break created_at ties.
func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, user_id, text, created_at) VALUES (?, ?, ?, ?)`,
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

// ListMessagesByUser returns every message addressed to userID, newest
// first. It always returns a non-nil slice so callers render [] and not null.
func (db *DB) ListMessagesByUser(ctx context.Context, userID string) ([]model.Message, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, text, created_at
		 FROM messages
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, apperror.Storage("list messages", err)
	}
	// Returns the connection to the pool, even on an early return below.
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, apperror.Storage("scan message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("iterate messages", err)
	}

	return messages, nil
}
