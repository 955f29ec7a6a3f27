package modelendpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// maxEmptyStreamEvents bounds how many consecutive no-op SSE events are
// tolerated before an Anthropic stream is declared malformed, the same
// guard internal/agent/providers/anthropic.go applies.
const maxEmptyStreamEvents = 50

// AnthropicEndpoint speaks Anthropic's Messages API wire format: content
// blocks (text/tool_use/thinking) assembled incrementally across
// content_block_start/delta/stop events. Grounded on
// internal/agent/providers/anthropic.go's processStream.
type AnthropicEndpoint struct {
	client anthropic.Client
	hasKey bool
}

// NewAnthropicEndpoint creates an Anthropic-style endpoint.
func NewAnthropicEndpoint(apiKey string) *AnthropicEndpoint {
	if apiKey == "" {
		return &AnthropicEndpoint{}
	}
	return &AnthropicEndpoint{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		hasKey: true,
	}
}

// Style identifies this endpoint's wire format.
func (e *AnthropicEndpoint) Style() string { return "anthropic" }

// Complete streams an Anthropic message completion.
func (e *AnthropicEndpoint) Complete(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	if !e.hasKey {
		return nil, errors.New("modelendpoint: anthropic endpoint has no API key configured")
	}

	messages, err := convertMessagesToAnthropic(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: anthropic message conversion: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertToolsToAnthropic(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("modelendpoint: anthropic tool conversion: %w", err)
		}
		params.Tools = tools
	}
	if req.EnableThinking {
		budget := int64(req.ThinkingBudgetTokens)
		if budget < 1024 {
			budget = 10000
		}
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
	}

	stream := e.client.Messages.NewStreaming(ctx, params)

	out := make(chan *Chunk, 16)
	go processAnthropicStream(stream, out)
	return out, nil
}

func processAnthropicStream(stream *anthropic.Stream[anthropic.MessageStreamEventUnion], out chan<- *Chunk) {
	defer close(out)

	var currentTool *chatmsg.ToolCall
	var toolInput strings.Builder
	inThinking := false
	emptyEvents := 0

	for stream.Next() {
		event := stream.Current()
		processed := false

		switch event.Type {
		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			switch block.Type {
			case "thinking":
				inThinking = true
				out <- &Chunk{ThinkingStart: true}
				processed = true
			case "tool_use":
				toolUse := block.AsToolUse()
				currentTool = &chatmsg.ToolCall{ID: toolUse.ID, Name: toolUse.Name}
				toolInput.Reset()
				processed = true
			}
		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					out <- &Chunk{Text: delta.Text}
					processed = true
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					out <- &Chunk{Thinking: delta.Thinking}
					processed = true
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					toolInput.WriteString(delta.PartialJSON)
					processed = true
				}
			}
		case "content_block_stop":
			if inThinking {
				out <- &Chunk{ThinkingEnd: true}
				inThinking = false
				processed = true
			} else if currentTool != nil {
				currentTool.Input = json.RawMessage(toolInput.String())
				out <- &Chunk{ToolCall: currentTool}
				currentTool = nil
				processed = true
			}
		case "message_delta":
			usage := event.AsMessageDelta().Usage
			if usage.OutputTokens > 0 {
				processed = true
			}
		case "message_stop":
			out <- &Chunk{Done: true}
			return
		case "error":
			out <- &Chunk{Error: errors.New("modelendpoint: anthropic stream error")}
			return
		}

		if processed {
			emptyEvents = 0
		} else {
			emptyEvents++
			if emptyEvents >= maxEmptyStreamEvents {
				out <- &Chunk{Error: fmt.Errorf("modelendpoint: anthropic stream appears malformed after %d empty events", emptyEvents)}
				return
			}
		}
	}

	if err := stream.Err(); err != nil {
		out <- &Chunk{Error: fmt.Errorf("modelendpoint: anthropic stream: %w", err)}
	}
}

func convertMessagesToAnthropic(messages []chatmsg.ChatMessage) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		if m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content))
		}
		for _, tr := range m.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}
		for _, tc := range m.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal(tc.Input, &input); err != nil {
				return nil, fmt.Errorf("tool call %s has invalid json arguments: %w", tc.ID, err)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}
		if len(blocks) == 0 {
			continue
		}

		if m.Role == chatmsg.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			// user, tool, context_file, diff, cd_instruction and plain_text
			// roles all fold into Anthropic user turns.
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out, nil
}

func convertToolsToAnthropic(tools []chatmsg.ToolDesc) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", t.Name)
		}
		toolParam.OfTool.Description = anthropic.String(t.Description)
		out = append(out, toolParam)
	}
	return out, nil
}
