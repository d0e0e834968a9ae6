package storage

import "time"

// Turn is one message of a stored conversation.
type Turn struct {
	ID        int64
	SessionID string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}
