package chatturn

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// roundOutcome collects the dispatch result for every tool call in one
// assistant turn, in the original call order, plus whether any of them
// reported a correction (e.g. a fuzzy-filename miss) the caller should
// treat as recoverable rather than a hard failure.
type roundOutcome struct {
	results        []chatmsg.ToolResult
	hadCorrections bool
	// pending is set when a call matched a confirmation rule at or above
	// the pause threshold: the round stops dead, nothing after this call
	// in the batch is executed, and the caller must resume explicitly.
	pending       *chatmsg.ToolCall
	pendingReason string
}

// dispatchToolCalls executes each call in order: look it up in the
// registry, deserialize its arguments, check it against the confirm/deny
// policy, then execute it if it passes. A deserialization failure or a
// deny verdict produces a synthetic error tool-result rather than aborting
// the round — only a confirmation verdict pauses the whole turn, per the
// pause-on-first-confirmation contract.
func (o *Orchestrator) dispatchToolCalls(ctx context.Context, calls []chatmsg.ToolCall, toolPolicy *policy.Policy) (roundOutcome, error) {
	var outcome roundOutcome

	for _, call := range calls {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}

		if !json.Valid(call.Input) {
			outcome.results = append(outcome.results, chatmsg.ToolResult{
				ToolCallID: call.ID,
				Content:    "tool arguments are not valid JSON",
				IsError:    true,
			})
			continue
		}

		decision := o.state.Tools.MatchAgainstConfirmDeny(toolPolicy, call.Name)
		switch decision.Verdict {
		case policy.VerdictDeny:
			outcome.results = append(outcome.results, chatmsg.ToolResult{
				ToolCallID: call.ID,
				Content:    fmt.Sprintf("denied by policy: %s", decision.Reason),
				IsError:    true,
			})
			continue
		case policy.VerdictConfirmation:
			outcome.pending = &call
			outcome.pendingReason = decision.Reason
			return outcome, nil
		}

		result, err := o.state.Tools.Execute(ctx, call.Name, call.Input)
		if err != nil {
			outcome.results = append(outcome.results, chatmsg.ToolResult{
				ToolCallID: call.ID,
				Content:    err.Error(),
				IsError:    true,
			})
			continue
		}
		result.ToolCallID = call.ID
		if resultReportsCorrection(result) {
			outcome.hadCorrections = true
		}
		outcome.results = append(outcome.results, *result)
	}

	return outcome, nil
}

// resultReportsCorrection sniffs a tool result for the "corrections"
// field the cat tool emits when one of its path arguments could not be
// resolved or read, per the orchestrator's
// contract to treat that as a recoverable condition rather than a hard
// tool error.
func resultReportsCorrection(result *chatmsg.ToolResult) bool {
	if result == nil || result.Content == "" {
		return false
	}
	var probe struct {
		Corrections []string `json:"corrections"`
	}
	if err := json.Unmarshal([]byte(result.Content), &probe); err != nil {
		return false
	}
	return len(probe.Corrections) > 0
}
