package chattools

import (
	"context"
	"fmt"

	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// runSubchatOnce drives one non-streaming completion round against model:
// it drains the Chunk stream into a final text, ignoring any tool calls the
// model emits (locate's strategy/decider sub-chats are text-only). This is
// the minimal slice of the full sub-chat recursion that tools built before
// the orchestrator need.
func runSubchatOnce(ctx context.Context, state *sharedstate.State, model, system, userMessage string) (string, error) {
	ep, ok := state.Models.Resolve(model)
	if !ok {
		return "", fmt.Errorf("no endpoint bound for model %q", model)
	}

	req := &modelendpoint.Request{
		Model:  model,
		System: system,
		Messages: []chatmsg.ChatMessage{
			{Role: chatmsg.RoleUser, Content: userMessage},
		},
	}
	ch, err := ep.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	var out string
	for chunk := range ch {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		out += chunk.Text
		if chunk.Done {
			break
		}
	}
	return out, nil
}
