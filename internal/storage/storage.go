// Package storage owns the two SQLite databases the daemon persists state
// into: memories.sqlite (long-lived knowledge-tool memories) and
// experimental_db.sqlite (chat-thread history). Split into two handles,
// one per driver, keeping a CGO driver (github.com/mattn/go-sqlite3) and
// a pure-Go one (modernc.org/sqlite) both available so the process can
// run CGO-free where the former can't build.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/nexuslang/nexus-lsp/internal/config"
)

// Store holds both persisted-state databases.
type Store struct {
	Memories     *sql.DB
	Experimental *sql.DB
}

// Open opens both databases per cfg, each in WAL mode with a 30s busy
// timeout and per-connection caching disabled, and applies the schema
// migrations. Callers close with Store.Close.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	busyTimeout := time.Duration(cfg.BusyTimeoutMS) * time.Millisecond
	if busyTimeout <= 0 {
		busyTimeout = 30 * time.Second
	}

	memories, err := openSQLite("sqlite3", cfg.MemoriesPath, busyTimeout)
	if err != nil {
		return nil, fmt.Errorf("storage: opening memories db: %w", err)
	}
	experimental, err := openSQLite("sqlite", cfg.ExperimentalPath, busyTimeout)
	if err != nil {
		memories.Close()
		return nil, fmt.Errorf("storage: opening experimental db: %w", err)
	}

	s := &Store{Memories: memories, Experimental: experimental}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(driver, path string, busyTimeout time.Duration) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", path, busyTimeout.Milliseconds())
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds()),
		"PRAGMA cache=off",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return db, nil
}

// Close closes both databases, returning the first error encountered.
func (s *Store) Close() error {
	var firstErr error
	if s.Memories != nil {
		if err := s.Memories.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Experimental != nil {
		if err := s.Experimental.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
