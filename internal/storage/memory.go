package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexuslang/nexus-lsp/internal/chattools"
)

// MemoryStore implements chattools.MemoryStore against the memories.sqlite
// database. Ranking here is a plain substring/keyword match over m_goal and
// m_payload, not vector cosine similarity — the vector column exists so a
// real sharedstate.VectorIndex backend can later rescue it, but computing
// similarity in-repo is explicitly out of scope (§4 Non-goals).
type MemoryStore struct {
	db *sql.DB
}

// NewMemoryStore wraps the memories database as a chattools.MemoryStore.
func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

var _ chattools.MemoryStore = (*MemoryStore)(nil)

// Memory is one persisted memory row.
type Memory struct {
	MemID     string
	MType     string
	MGoal     string
	MProject  string
	MPayload  string
	CreatedAt time.Time
}

// Save inserts a new memory row, returning its generated mem_id.
func (s *MemoryStore) Save(ctx context.Context, m Memory) (string, error) {
	if m.MemID == "" {
		m.MemID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (mem_id, m_type, m_goal, m_project, m_payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.MemID, m.MType, m.MGoal, m.MProject, m.MPayload, m.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("storage: saving memory: %w", err)
	}
	return m.MemID, nil
}

// Search returns memories whose goal or payload contain query as a
// substring, ordered by mstat_times_used then recency; each snippet's Score
// is a simple term-overlap count (not vector similarity).
func (s *MemoryStore) Search(ctx context.Context, query string, topN int) ([]chattools.MemorySnippet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m_goal, m_payload FROM memories
		WHERE m_goal LIKE ? OR m_payload LIKE ?
		ORDER BY mstat_times_used DESC, created_at DESC
		LIMIT ?`,
		"%"+query+"%", "%"+query+"%", clampTopN(topN))
	if err != nil {
		return nil, fmt.Errorf("storage: searching memories: %w", err)
	}
	defer rows.Close()

	var out []chattools.MemorySnippet
	terms := strings.Fields(strings.ToLower(query))
	for rows.Next() {
		var goal, payload string
		if err := rows.Scan(&goal, &payload); err != nil {
			return nil, fmt.Errorf("storage: scanning memory row: %w", err)
		}
		out = append(out, chattools.MemorySnippet{
			Text:  payload,
			Score: termOverlapScore(terms, goal+" "+payload),
		})
	}
	return out, rows.Err()
}

// AddDocSource attaches an external documentation URL to the memory store
// as a "doc_source"-typed memory, the same way the knowledge tool records
// any other learned fact.
func (s *MemoryStore) AddDocSource(ctx context.Context, url string) error {
	_, err := s.Save(ctx, Memory{
		MType:    "doc_source",
		MGoal:    "doc_sources",
		MPayload: url,
	})
	return err
}

func clampTopN(topN int) int {
	if topN <= 0 {
		return 10
	}
	if topN > 100 {
		return 100
	}
	return topN
}

func termOverlapScore(terms []string, haystack string) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack = strings.ToLower(haystack)
	hits := 0
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
