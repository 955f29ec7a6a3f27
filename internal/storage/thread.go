package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// ThreadStore persists chat threads and their messages into
// experimental_db.sqlite's cthreads/cmessage tables, keyed by
// (cthread_id, alt, num).
type ThreadStore struct {
	db *sql.DB
}

// NewThreadStore wraps the experimental database as a ThreadStore.
func NewThreadStore(db *sql.DB) *ThreadStore {
	return &ThreadStore{db: db}
}

// CreateThread inserts a new thread row, generating an ID if none is set.
func (s *ThreadStore) CreateThread(ctx context.Context, t chatmsg.Thread) (chatmsg.Thread, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return chatmsg.Thread{}, fmt.Errorf("storage: marshaling thread metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cthreads (cthread_id, title, model, workspace_root, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Model, t.WorkspaceRoot, string(metadata),
		t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return chatmsg.Thread{}, fmt.Errorf("storage: creating thread: %w", err)
	}
	return t, nil
}

// AppendMessage inserts one message at the next free num for (threadID, alt)
// and bumps the thread's updated_at.
func (s *ThreadStore) AppendMessage(ctx context.Context, threadID string, alt int, msg chatmsg.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin append message: %w", err)
	}
	defer tx.Rollback()

	var nextNum int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(num) + 1, 0) FROM cmessage WHERE cthread_id = ? AND alt = ?`,
		threadID, alt).Scan(&nextNum)
	if err != nil {
		return fmt.Errorf("storage: computing next message num: %w", err)
	}

	elements, err := json.Marshal(msg.Elements)
	if err != nil {
		return fmt.Errorf("storage: marshaling message elements: %w", err)
	}
	toolCalls, err := json.Marshal(msg.ToolCalls)
	if err != nil {
		return fmt.Errorf("storage: marshaling tool calls: %w", err)
	}
	toolResults, err := json.Marshal(msg.ToolResults)
	if err != nil {
		return fmt.Errorf("storage: marshaling tool results: %w", err)
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cmessage (cthread_id, alt, num, role, content, elements, tool_calls, tool_results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		threadID, alt, nextNum, string(msg.Role), msg.Content,
		string(elements), string(toolCalls), string(toolResults),
		createdAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("storage: inserting message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE cthreads SET updated_at = ? WHERE cthread_id = ?`,
		time.Now().Format(time.RFC3339), threadID); err != nil {
		return fmt.Errorf("storage: bumping thread updated_at: %w", err)
	}

	return tx.Commit()
}

// ListMessages returns every message for (threadID, alt), ordered by num.
func (s *ThreadStore) ListMessages(ctx context.Context, threadID string, alt int) ([]chatmsg.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, elements, tool_calls, tool_results, created_at
		FROM cmessage WHERE cthread_id = ? AND alt = ? ORDER BY num ASC`,
		threadID, alt)
	if err != nil {
		return nil, fmt.Errorf("storage: listing messages: %w", err)
	}
	defer rows.Close()

	var out []chatmsg.ChatMessage
	for rows.Next() {
		var role, content, elements, toolCalls, toolResults, createdAt string
		if err := rows.Scan(&role, &content, &elements, &toolCalls, &toolResults, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: scanning message row: %w", err)
		}
		msg := chatmsg.ChatMessage{
			ThreadID: threadID,
			Role:     chatmsg.Role(role),
			Content:  content,
		}
		if err := json.Unmarshal([]byte(elements), &msg.Elements); err != nil {
			return nil, fmt.Errorf("storage: unmarshaling elements: %w", err)
		}
		if err := json.Unmarshal([]byte(toolCalls), &msg.ToolCalls); err != nil {
			return nil, fmt.Errorf("storage: unmarshaling tool calls: %w", err)
		}
		if err := json.Unmarshal([]byte(toolResults), &msg.ToolResults); err != nil {
			return nil, fmt.Errorf("storage: unmarshaling tool results: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			msg.CreatedAt = t
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// ListThreads returns every persisted thread, most recently updated first.
func (s *ThreadStore) ListThreads(ctx context.Context) ([]chatmsg.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cthread_id, title, model, workspace_root, metadata, created_at, updated_at
		FROM cthreads ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: listing threads: %w", err)
	}
	defer rows.Close()

	var out []chatmsg.Thread
	for rows.Next() {
		var t chatmsg.Thread
		var metadata, createdAt, updatedAt string
		if err := rows.Scan(&t.ID, &t.Title, &t.Model, &t.WorkspaceRoot, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: scanning thread row: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &t.Metadata); err != nil {
			return nil, fmt.Errorf("storage: unmarshaling thread metadata: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			t.CreatedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			t.UpdatedAt = ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
