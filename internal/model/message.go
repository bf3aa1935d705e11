package model

import "time"

// Message is an anonymous note addressed to a user.
//
// There is no sender field anywhere in the model or the schema: a message
// only knows who it was sent to.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
