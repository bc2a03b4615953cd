// Package tokenstore keeps each Telegram user's custody auth token.
package tokenstore

import (
	"time"
)

// Store maps a Telegram user to the token used for their tool calls.
type Store interface {
	Get(userID int64) (string, bool)
	Set(userID int64, token string) error
	Delete(userID int64) error
	Count() int
	Close() error
}

type entry struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// expired reports whether e is older than ttl. ttl <= 0 never expires.
func (e entry) expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.SavedAt) >= ttl
}

// Open returns a Bolt store at path, or an in-memory store when path is empty.
func Open(path string, ttl time.Duration) (Store, error) {
	if path == "" {
		return NewMemory(ttl), nil
	}
	return OpenBolt(path, ttl)
}
