package chattools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// ChromeTool navigates to a URL in a headless Chrome instance and returns
// its rendered text, subject to the same confirm/deny/timeout contract as
// the other integrations. Grounded on chromedp's standard
// allocator+context pattern; no example repo in this codebase's lineage
// drives chromedp directly (the closest prior art targets an external
// Playwright service instead), so this is built straight from the
// chromedp package's documented usage.
type ChromeTool struct {
	noRules
	timeout time.Duration
}

func NewChromeTool(timeout time.Duration) *ChromeTool {
	if timeout <= 0 {
		timeout = defaultIntegrationTimeout * 3
	}
	return &ChromeTool{timeout: timeout}
}

func (t *ChromeTool) Name() string        { return "chrome" }
func (t *ChromeTool) Description() string { return "Render a URL in headless Chrome and return its visible text." }
func (t *ChromeTool) Confirm() []string   { return []string{"*"} }
func (t *ChromeTool) Deny() []string      { return nil }
func (t *ChromeTool) AskUser() []string   { return nil }

func (t *ChromeTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"url": map[string]any{"type": "string"}},
		"required":   []string{"url"},
	})
}

func (t *ChromeTool) Execute(ctx context.Context, params json.RawMessage) (*chatmsg.ToolResult, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError("invalid parameters: " + err.Error()), nil
	}
	target := strings.TrimSpace(input.URL)
	if target == "" {
		return toolError("url is required"), nil
	}

	runCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, t.timeout)
	defer cancelTimeout()

	var text string
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(target),
		chromedp.Text("body", &text, chromedp.ByQuery),
	); err != nil {
		return toolError(err.Error()), nil
	}

	return &chatmsg.ToolResult{Content: text}, nil
}
