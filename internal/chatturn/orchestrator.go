package chatturn

import (
	"context"
	"fmt"
	"time"

	"github.com/nexuslang/nexus-lsp/internal/atcommands"
	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/postprocess"
	"github.com/nexuslang/nexus-lsp/internal/scratchpad"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// defaultMaxToolRounds bounds how many completion/tool-dispatch rounds one
// turn runs before the orchestrator gives up and ends the turn on its own,
// mirroring Runtime.run's maxIters default of 5 when the caller sets none.
const defaultMaxToolRounds = 5

// defaultToolResultBudget is the token budget postprocessing splits evenly
// between raw tool-result text and gradient-compressed context files when
// the caller doesn't name a model-specific window.
const defaultToolResultBudget = 4000

// EventKind classifies one Event streamed out of RunTurn.
type EventKind string

const (
	EventContextFile EventKind = "context_file"
	EventDelta       EventKind = "delta"
	EventToolResult  EventKind = "tool_result"
	EventPending     EventKind = "pending_confirmation"
	EventDone        EventKind = "done"
	EventError       EventKind = "error"
)

// Event is one unit of a streamed turn. Exactly the fields relevant to
// Kind are populated.
type Event struct {
	Kind     EventKind
	Message  *chatmsg.ChatMessage
	Delta    string
	ToolCall *chatmsg.ToolCall
	Reason   string
	Err      error
}

// TurnOptions configures one call to RunTurn.
type TurnOptions struct {
	Model          string
	ScratchpadName string // empty resolves to the model's caps entry, then the registry default
	ChatMode       ChatMode
	Workspace      WorkspaceInfo
	ProjectInfo    string
	TopN           int // @-command result count, e.g. @search top-k
	MaxToolRounds  int
	ToolPolicy     *policy.Policy
	// CorrectionOnlyUpToStep bounds how many rounds a reported filename
	// correction is allowed to short-circuit the round to a single
	// "corrections present, retry" message, instead of continuing with
	// whatever context/tool messages were produced.
	CorrectionOnlyUpToStep int
	// ToolResultBudget is the total token budget postprocessing splits
	// between tool-result text and context files each round.
	ToolResultBudget int
}

// Orchestrator runs the system-prompt -> context-commands -> scratchpad ->
// completion -> tool-dispatch -> postprocess loop for one chat turn.
type Orchestrator struct {
	state       *sharedstate.State
	commands    *atcommands.Registry
	scratchpads *scratchpad.Registry
	prompts     *PromptTable
	gradient    *postprocess.Gradient
	plainBudget *postprocess.PlainTextBudget
}

// NewOrchestrator wires an Orchestrator from the shared process state plus
// the component registries a turn dispatches through.
func NewOrchestrator(state *sharedstate.State, commands *atcommands.Registry, scratchpads *scratchpad.Registry, prompts *PromptTable) *Orchestrator {
	return &Orchestrator{
		state:       state,
		commands:    commands,
		scratchpads: scratchpads,
		prompts:     prompts,
		gradient:    postprocess.NewGradient(postprocess.DefaultGradientConfig(), state.Tokenizers),
		plainBudget: postprocess.NewPlainTextBudget(state.Tokenizers),
	}
}

// RunTurn streams the full turn as a sequence of Events on the returned
// channel, which is closed after a terminal EventDone, EventError, or
// EventPending. The caller is responsible for resuming a pending turn (a
// tool call that needs interactive confirmation) by re-invoking RunTurn
// with the decision folded into thread.
func (o *Orchestrator) RunTurn(ctx context.Context, thread []chatmsg.ChatMessage, userMsg chatmsg.ChatMessage, opts TurnOptions) (<-chan Event, error) {
	rec, ok := o.state.Caps().Resolve(opts.Model)
	if !ok {
		return nil, fmt.Errorf("chatturn: model %q not found in caps", opts.Model)
	}
	endpoint, ok := o.state.Models.Resolve(opts.Model)
	if !ok {
		return nil, fmt.Errorf("chatturn: model %q has no bound endpoint", opts.Model)
	}
	spName := opts.ScratchpadName
	if spName == "" {
		spName = rec.SupportsScratchpad
	}
	sp, err := o.scratchpads.Resolve(spName)
	if err != nil {
		return nil, fmt.Errorf("chatturn: %w", err)
	}

	maxRounds := opts.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxToolRounds
	}
	budget := opts.ToolResultBudget
	if budget <= 0 {
		budget = defaultToolResultBudget
	}

	events := make(chan Event, 16)
	go o.run(ctx, events, thread, userMsg, opts, opts.Model, endpoint, sp, maxRounds, budget)
	return events, nil
}

func (o *Orchestrator) run(
	ctx context.Context,
	events chan<- Event,
	thread []chatmsg.ChatMessage,
	userMsg chatmsg.ChatMessage,
	opts TurnOptions,
	model string,
	endpoint modelendpoint.Endpoint,
	sp scratchpad.Scratchpad,
	maxRounds int,
	budget int,
) {
	defer close(events)

	system := o.prompts.Render(opts.ChatMode, opts.Workspace, opts.ProjectInfo)

	cmdResult := o.commands.Process(o.state, userMsg.Content, opts.TopN)
	userMsg.Content = cmdResult.RewrittenQuery
	contextMsgs := cmdResult.ContextFileMessages()
	for i := range contextMsgs {
		select {
		case events <- Event{Kind: EventContextFile, Message: &contextMsgs[i]}:
		case <-ctx.Done():
			events <- Event{Kind: EventError, Err: ctx.Err()}
			return
		}
	}

	history := make([]chatmsg.ChatMessage, 0, len(thread)+len(contextMsgs)+1)
	history = append(history, thread...)
	history = append(history, contextMsgs...)
	history = append(history, userMsg)

	tools := o.state.Tools.Descriptors()

	for round := 0; round < maxRounds; round++ {
		if ctx.Err() != nil {
			events <- Event{Kind: EventError, Err: ctx.Err()}
			return
		}

		messages := make([]chatmsg.ChatMessage, 0, len(history)+1)
		if system != "" {
			messages = append(messages, chatmsg.ChatMessage{Role: chatmsg.RoleSystem, Content: system})
		}
		messages = append(messages, history...)

		assistant, err := o.streamCompletion(ctx, events, endpoint, sp, model, messages, tools)
		if err != nil {
			events <- Event{Kind: EventError, Err: err}
			return
		}
		history = append(history, *assistant)

		if len(assistant.ToolCalls) == 0 {
			events <- Event{Kind: EventDone, Message: assistant}
			return
		}

		outcome, err := o.dispatchToolCalls(ctx, assistant.ToolCalls, opts.ToolPolicy)
		if err != nil {
			events <- Event{Kind: EventError, Err: err}
			return
		}
		if outcome.pending != nil {
			events <- Event{Kind: EventPending, ToolCall: outcome.pending, Reason: outcome.pendingReason}
			return
		}

		toolMsg, contextFiles := o.postprocessRound(model, outcome, budget)

		if outcome.hadCorrections && round < opts.CorrectionOnlyUpToStep {
			history = append(history, chatmsg.ChatMessage{
				Role:    chatmsg.RoleUser,
				Content: "corrections present, retry",
			})
			continue
		}

		history = append(history, toolMsg)
		history = append(history, contextFiles...)

		select {
		case events <- Event{Kind: EventToolResult, Message: &toolMsg}:
		case <-ctx.Done():
			events <- Event{Kind: EventError, Err: ctx.Err()}
			return
		}
		for i := range contextFiles {
			select {
			case events <- Event{Kind: EventContextFile, Message: &contextFiles[i]}:
			case <-ctx.Done():
				events <- Event{Kind: EventError, Err: ctx.Err()}
				return
			}
		}
	}

	events <- Event{Kind: EventError, Err: fmt.Errorf("chatturn: max tool rounds (%d) reached", maxRounds)}
}

// streamCompletion renders messages through sp, streams the completion
// from endpoint, forwards every text delta as an Event, and accumulates
// the result into one assistant ChatMessage. Once streaming ends, the
// accumulated raw text is run back through sp.Parse — for a flat-string
// scratchpad (chat-completion, code-completion) this trims any trailing
// text the model generated past its stop sequence; for passthrough it is
// a no-op since Parse on already-clean text returns it unchanged.
func (o *Orchestrator) streamCompletion(
	ctx context.Context,
	events chan<- Event,
	endpoint modelendpoint.Endpoint,
	sp scratchpad.Scratchpad,
	model string,
	messages []chatmsg.ChatMessage,
	tools []chatmsg.ToolDesc,
) (*chatmsg.ChatMessage, error) {
	prompt, err := sp.Render(messages, scratchpad.Params{})
	if err != nil {
		return nil, fmt.Errorf("chatturn: render prompt: %w", err)
	}

	req := &modelendpoint.Request{
		Model:    model,
		Messages: prompt.Messages,
		Tools:    tools,
	}
	if prompt.Text != "" {
		req.System = prompt.Text
	}

	chunks, err := endpoint.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chatturn: completion call: %w", err)
	}

	assistant := &chatmsg.ChatMessage{Role: chatmsg.RoleAssistant, CreatedAt: time.Now()}
	var raw string
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.Text != "" {
			raw += chunk.Text
			assistant.Content += chunk.Text
			select {
			case events <- Event{Kind: EventDelta, Delta: chunk.Text}:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if chunk.ToolCall != nil {
			assistant.ToolCalls = append(assistant.ToolCalls, *chunk.ToolCall)
		}
		if chunk.Usage != nil {
			assistant.Usage = chunk.Usage
		}
	}

	if raw != "" {
		parsed, err := sp.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("chatturn: parse completion: %w", err)
		}
		if len(parsed) > 0 {
			assistant.Content = parsed[0].Content
		}
	}

	return assistant, nil
}
