package config

import "fmt"

// DatabaseConfig names the two persisted-state SQLite databases this
// daemon opens: memories.sqlite (github.com/mattn/go-sqlite3) and
// experimental_db.sqlite (modernc.org/sqlite, pure-Go so the daemon can
// run CGO-free where mattn/go-sqlite3 can't build). Mirrors a gateway
// DatabaseConfig's shape (URL/MaxConnections/ConnMaxLifetime) adapted
// from one Postgres URL to two local file paths.
type DatabaseConfig struct {
	MemoriesPath     string `yaml:"memories_path"`
	ExperimentalPath string `yaml:"experimental_path"`
	BusyTimeoutMS    int    `yaml:"busy_timeout_ms"`
}

func (d *DatabaseConfig) applyDefaults() {
	if d.MemoriesPath == "" {
		d.MemoriesPath = "memories.sqlite"
	}
	if d.ExperimentalPath == "" {
		d.ExperimentalPath = "experimental_db.sqlite"
	}
	if d.BusyTimeoutMS == 0 {
		d.BusyTimeoutMS = 30000
	}
}

func (d *DatabaseConfig) validate() []string {
	var issues []string
	if d.MemoriesPath == d.ExperimentalPath {
		issues = append(issues, fmt.Sprintf("database.memories_path and database.experimental_path must differ, both %q", d.MemoriesPath))
	}
	return issues
}
