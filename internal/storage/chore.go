package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// ChoreStore persists chatmsg.Chore rows: a todo/task ticket distinct
// from patch tickets, surfaced read-only to editor UIs.
type ChoreStore struct {
	db *sql.DB
}

// NewChoreStore wraps the experimental database as a ChoreStore.
func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// Create inserts a new chore for threadID.
func (s *ChoreStore) Create(ctx context.Context, threadID, title, description string) (chatmsg.Chore, error) {
	c := chatmsg.Chore{
		ID:          uuid.NewString(),
		ThreadID:    threadID,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chores (id, cthread_id, title, description, done, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		c.ID, c.ThreadID, c.Title, c.Description, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return chatmsg.Chore{}, fmt.Errorf("storage: creating chore: %w", err)
	}
	return c, nil
}

// MarkDone flips a chore's done flag.
func (s *ChoreStore) MarkDone(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE chores SET done = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: marking chore done: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: checking chore update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage: chore %s not found", id)
	}
	return nil
}

// ListByThread returns every chore for threadID, oldest first.
func (s *ChoreStore) ListByThread(ctx context.Context, threadID string) ([]chatmsg.Chore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cthread_id, title, description, done, created_at
		FROM chores WHERE cthread_id = ? ORDER BY created_at ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("storage: listing chores: %w", err)
	}
	defer rows.Close()

	var out []chatmsg.Chore
	for rows.Next() {
		var c chatmsg.Chore
		var done int
		var createdAt string
		if err := rows.Scan(&c.ID, &c.ThreadID, &c.Title, &c.Description, &done, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: scanning chore row: %w", err)
		}
		c.Done = done != 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			c.CreatedAt = t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
