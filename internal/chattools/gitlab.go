package chattools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// GitLabTool mirrors GitHubTool's shape for GitLab: read-only issue list /
// merge-request diff fetch via the GitLab REST API, token handling via
// golang.org/x/oauth2.
type GitLabTool struct {
	noRules
	client  *http.Client
	baseURL string
}

func NewGitLabTool(token, baseURL string) *GitLabTool {
	if baseURL == "" {
		baseURL = "https://gitlab.com"
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitLabTool{client: oauth2.NewClient(context.Background(), src), baseURL: baseURL}
}

func (t *GitLabTool) Name() string        { return "gitlab" }
func (t *GitLabTool) Description() string { return "List issues or fetch a merge request diff from a GitLab project (read-only)." }
func (t *GitLabTool) Confirm() []string   { return nil }
func (t *GitLabTool) Deny() []string      { return nil }
func (t *GitLabTool) AskUser() []string   { return nil }

func (t *GitLabTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project": map[string]any{"type": "string", "description": "owner/name"},
			"action":  map[string]any{"type": "string", "enum": []string{"list_issues", "mr_diff"}},
			"mr_iid":  map[string]any{"type": "integer"},
		},
		"required": []string{"project", "action"},
	})
}

func (t *GitLabTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	if t.client == nil {
		return toolError("gitlab: not configured"), nil
	}
	var input struct {
		Project string `json:"project"`
		Action  string `json:"action"`
		MRIid   int    `json:"mr_iid"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	encodedProject := url.PathEscape(input.Project)

	switch input.Action {
	case "list_issues":
		return t.fetch(ctx, fmt.Sprintf("%s/api/v4/projects/%s/issues", t.baseURL, encodedProject))
	case "mr_diff":
		if input.MRIid <= 0 {
			return toolError("mr_iid is required for mr_diff"), nil
		}
		return t.fetch(ctx, fmt.Sprintf("%s/api/v4/projects/%s/merge_requests/%d/diffs", t.baseURL, encodedProject, input.MRIid))
	default:
		return toolError("unknown action: " + input.Action), nil
	}
}

func (t *GitLabTool) fetch(ctx context.Context, apiURL string) (*chatmsg.ToolResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return toolError(err.Error()), nil
	}
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
