package chattools

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	_ "github.com/lib/pq"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// maxIntegrationRows caps how many rows a query-style integration tool
// returns.
const maxIntegrationRows = 200

// PostgresTool wraps a single free-form SQL query argument, executed
// read-only against a configured DSN, size-capped. Grounded on
// internal/tools/exec's "parse one argument,
// execute, return stdout-shaped result" integration shape, adapted from a
// shell process to a database/sql connection using the real lib/pq driver.
type PostgresTool struct {
	dsn string
}

func NewPostgresTool(dsn string) *PostgresTool { return &PostgresTool{dsn: dsn} }

func (t *PostgresTool) Name() string        { return "postgres" }
func (t *PostgresTool) Description() string { return "Run a read-only SQL query against the configured Postgres database." }
func (t *PostgresTool) Confirm() []string   { return []string{"*"} }
func (t *PostgresTool) Deny() []string      { return []string{"DROP *", "DELETE *", "TRUNCATE *", "ALTER *"} }
func (t *PostgresTool) AskUser() []string   { return nil }

func (t *PostgresTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	})
}

func (t *PostgresTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.dsn == "" {
		return toolError("postgres: no DSN configured"), nil
	}
	var input struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return toolError("query is required"), nil
	}

	db, err := sql.Open("postgres", t.dsn)
	if err != nil {
		return toolError(err.Error()), nil
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return toolError(err.Error()), nil
	}
	defer rows.Close()

	records, truncated, err := scanCappedRows(rows, maxIntegrationRows)
	if err != nil {
		return toolError(err.Error()), nil
	}
	return toolJSON(map[string]any{"rows": records, "truncated": truncated}), nil
}

// scanCappedRows drains rows into generic maps, stopping at max rows.
func scanCappedRows(rows *sql.Rows, max int) ([]map[string]any, bool, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, false, err
	}

	var out []map[string]any
	for rows.Next() {
		if len(out) >= max {
			return out, true, nil
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, err
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	return out, false, rows.Err()
}
