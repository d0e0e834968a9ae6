package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_conversation_store.go -package=mocks github.com/radulovicigor/CBCGchatbot/internal/storage ConversationStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ConversationStore defines the interface for session history operations.
type ConversationStore interface {
	// Append adds one turn to the session.
	Append(ctx context.Context, sessionID, role, content string) error
	// Recent returns up to limit of the latest turns in chronological order.
	Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error)
}

// ConversationRepo provides methods for conversation turn operations.
// It implements the ConversationStore interface.
type ConversationRepo struct {
	db *sql.DB
}

// NewConversationRepo creates a new ConversationRepo.
func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Append adds one turn to the session.
func (r *ConversationRepo) Append(ctx context.Context, sessionID, role, content string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO conversation_turns (session_id, role, content) VALUES (?, ?, ?)",
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Recent returns up to limit of the latest turns in chronological order.
// Returns an empty slice for unknown sessions (not an error).
func (r *ConversationRepo) Recent(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return []Turn{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at FROM conversation_turns
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		 ) ORDER BY id ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	turns := []Turn{}
	for rows.Next() {
		var turn Turn
		var createdAt string
		if err := rows.Scan(&turn.ID, &turn.SessionID, &turn.Role, &turn.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.CreatedAt, err = time.Parse("2006-01-02 15:04:05", createdAt)
		if err != nil {
			// SQLite might use a different format
			turn.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return turns, nil
}
