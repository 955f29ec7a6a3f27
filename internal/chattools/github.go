package chattools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// maxIntegrationBody caps how many response bytes an HTTP-backed
// integration tool reads back.
const maxIntegrationBody = 256 << 10

// GitHubTool is a minimal read-only GitHub integration (issue list / PR
// diff fetch), grounded on original_source/src/at_tools/tool_github.rs —
// reimplemented against the REST API with golang.org/x/oauth2 token
// handling instead of shelling out to the gh CLI.
type GitHubTool struct {
	noRules
	client *http.Client
}

func NewGitHubTool(token string) *GitHubTool {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHubTool{client: oauth2.NewClient(context.Background(), src)}
}

func (t *GitHubTool) Name() string        { return "github" }
func (t *GitHubTool) Description() string { return "List issues or fetch a pull request diff from a GitHub repository (read-only)." }
func (t *GitHubTool) Confirm() []string   { return nil }
func (t *GitHubTool) Deny() []string      { return nil }
func (t *GitHubTool) AskUser() []string   { return nil }

func (t *GitHubTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"repo":    map[string]any{"type": "string", "description": "owner/name"},
			"action":  map[string]any{"type": "string", "enum": []string{"list_issues", "pr_diff"}},
			"pr_number": map[string]any{"type": "integer"},
		},
		"required": []string{"repo", "action"},
	})
}

func (t *GitHubTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.client == nil {
		return toolError("github: not configured"), nil
	}
	var input struct {
		Repo     string `json:"repo"`
		Action   string `json:"action"`
		PRNumber int    `json:"pr_number"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	if strings.Count(input.Repo, "/") != 1 {
		return toolError("repo must be in owner/name form"), nil
	}

	switch input.Action {
	case "list_issues":
		return t.fetch(ctx, fmt.Sprintf("https://api.github.com/repos/%s/issues", input.Repo), "application/vnd.github+json")
	case "pr_diff":
		if input.PRNumber <= 0 {
			return toolError("pr_number is required for pr_diff"), nil
		}
		return t.fetch(ctx, fmt.Sprintf("https://api.github.com/repos/%s/pulls/%d", input.Repo, input.PRNumber), "application/vnd.github.diff")
	default:
		return toolError("unknown action: " + input.Action), nil
	}
}

func (t *GitHubTool) fetch(ctx context.Context, url, accept string) (*chatmsg.ToolResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return toolError(err.Error()), nil
	}
	req.Header.Set("Accept", accept)

	resp, err := t.client.Do(req)
	if err != nil {
		return toolError(err.Error()), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntegrationBody))
	if err != nil {
		return toolError(err.Error()), nil
	}
	if resp.StatusCode >= 400 {
		return &chatmsg.ToolResult{Content: string(body), IsError: true}, nil
	}
	return &chatmsg.ToolResult{Content: string(body)}, nil
}
