package chattools

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// MySQLTool mirrors PostgresTool's shape for MySQL, using the real
// go-sql-driver/mysql driver.
type MySQLTool struct {
	dsn string
}

func NewMySQLTool(dsn string) *MySQLTool { return &MySQLTool{dsn: dsn} }

func (t *MySQLTool) Name() string        { return "mysql" }
func (t *MySQLTool) Description() string { return "Run a read-only SQL query against the configured MySQL database." }
func (t *MySQLTool) Confirm() []string   { return []string{"*"} }
func (t *MySQLTool) Deny() []string      { return []string{"DROP *", "DELETE *", "TRUNCATE *", "ALTER *"} }
func (t *MySQLTool) AskUser() []string   { return nil }

func (t *MySQLTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	})
}

func (t *MySQLTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.dsn == "" {
		return toolError("mysql: no DSN configured"), nil
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

	db, err := sql.Open("mysql", t.dsn)
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
