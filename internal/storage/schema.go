package storage

import "fmt"

const memoriesSchema = `
CREATE TABLE IF NOT EXISTS memories (
	mem_id     TEXT PRIMARY KEY,
	m_type     TEXT NOT NULL,
	m_goal     TEXT NOT NULL,
	m_project  TEXT NOT NULL DEFAULT '',
	m_payload  TEXT NOT NULL,
	mstat_times_used INTEGER NOT NULL DEFAULT 0,
	mstat_last_used  TEXT NOT NULL DEFAULT '',
	mstat_correct    REAL NOT NULL DEFAULT 0,
	mstat_relevant   REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_goal_project ON memories(m_goal, m_project);

CREATE TABLE IF NOT EXISTS memory_vectors (
	mem_id TEXT PRIMARY KEY REFERENCES memories(mem_id) ON DELETE CASCADE,
	vector BLOB NOT NULL
);
`

const experimentalSchema = `
CREATE TABLE IF NOT EXISTS cthreads (
	cthread_id TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	model      TEXT NOT NULL DEFAULT '',
	workspace_root TEXT NOT NULL DEFAULT '',
	metadata   TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cmessage (
	cthread_id TEXT NOT NULL REFERENCES cthreads(cthread_id) ON DELETE CASCADE,
	alt        INTEGER NOT NULL DEFAULT 0,
	num        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	elements   TEXT NOT NULL DEFAULT '[]',
	tool_calls TEXT NOT NULL DEFAULT '[]',
	tool_results TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	PRIMARY KEY (cthread_id, alt, num)
);

CREATE TABLE IF NOT EXISTS chores (
	id          TEXT PRIMARY KEY,
	cthread_id  TEXT NOT NULL REFERENCES cthreads(cthread_id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	done        INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
`

// Migrate applies the schema to both databases. Every statement is
// CREATE-IF-NOT-EXISTS, so it is safe to call on every startup rather than
// tracking a separate migration version table.
func (s *Store) Migrate() error {
	if _, err := s.Memories.Exec(memoriesSchema); err != nil {
		return fmt.Errorf("storage: migrating memories schema: %w", err)
	}
	if _, err := s.Experimental.Exec(experimentalSchema); err != nil {
		return fmt.Errorf("storage: migrating experimental schema: %w", err)
	}
	return nil
}
