// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account that can receive anonymous messages.
//
// Username and Slug are fixed at registration; there is no rename flow.
// Email is optional, so it is a pointer: nil is stored as SQL NULL and
// rendered as JSON null, which lets any number of users omit it while the
// column stays UNIQUE.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email"`
	PasswordHash string    `json:"-"` // never serialized
	Slug         string    `json:"slug"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is what anyone visiting a share link may see about its owner.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Slug     string `json:"slug"`
}

// Public strips everything but the routing identity.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Slug: u.Slug}
}
