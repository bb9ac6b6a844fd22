package domain

import (
	"crypto/subtle"
	"time"
)

// Client is an integration tenant acting on behalf of its users. It owns
// exactly one API key and zero or more users; every request must carry a
// client id matching the target user's owner.
type Client struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Argon2id, never expose
	KeyID        int64     `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Key is the opaque high-entropy credential bound 1:1 to a client.
type Key struct {
	ID        int64     `json:"id"`
	Secret    string    `json:"-"` // never expose
	CreatedAt time.Time `json:"created_at"`
}

// Matches compares a presented key against the stored secret in constant
// time.
func (k *Key) Matches(presented string) bool {
	return subtle.ConstantTimeCompare([]byte(k.Secret), []byte(presented)) == 1
}

// Owns reports whether the user belongs to this client.
func (c *Client) Owns(u *User) bool {
	return u.ClientID == c.ID
}
