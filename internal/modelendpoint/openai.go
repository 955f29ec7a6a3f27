package modelendpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// OpenAIEndpoint speaks the OpenAI chat-completions wire format: function
// calling via tool_calls deltas, SSE-framed streaming handled by the SDK.
// Grounded on internal/agent/providers/openai.go.
type OpenAIEndpoint struct {
	client *openai.Client
}

// NewOpenAIEndpoint creates an OpenAI-style endpoint. An empty apiKey
// produces an endpoint that fails fast on Complete rather than panicking
// later on a nil client.
func NewOpenAIEndpoint(apiKey string) *OpenAIEndpoint {
	if apiKey == "" {
		return &OpenAIEndpoint{}
	}
	return &OpenAIEndpoint{client: openai.NewClient(apiKey)}
}

// Style identifies this endpoint's wire format.
func (e *OpenAIEndpoint) Style() string { return "openai" }

// Complete streams an OpenAI chat completion, normalizing text and
// function-call deltas into Chunks.
func (e *OpenAIEndpoint) Complete(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	if e.client == nil {
		return nil, errors.New("modelendpoint: openai endpoint has no API key configured")
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessagesToOpenAI(req.System, req.Messages),
		Tools:       convertToolsToOpenAI(req.Tools),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		Stream:      true,
	}

	stream, err := e.client.CreateChatCompletionStream(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: openai stream create: %w", err)
	}

	out := make(chan *Chunk, 16)
	go func() {
		defer close(out)
		defer stream.Close()

		toolCallsByIndex := map[int]*chatmsg.ToolCall{}
		var usage *chatmsg.Usage

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				select {
				case out <- &Chunk{Error: fmt.Errorf("modelendpoint: openai stream recv: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if resp.Usage != nil {
				usage = &chatmsg.Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				}
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta
			if delta.Content != "" {
				select {
				case out <- &Chunk{Text: delta.Content}:
				case <-ctx.Done():
					return
				}
			}
			for _, tc := range delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				acc, ok := toolCallsByIndex[idx]
				if !ok {
					acc = &chatmsg.ToolCall{ID: tc.ID, Name: tc.Function.Name}
					toolCallsByIndex[idx] = acc
				}
				if tc.Function.Name != "" {
					acc.Name = tc.Function.Name
				}
				acc.Input = append(acc.Input, []byte(tc.Function.Arguments)...)
			}
		}

		for _, tc := range toolCallsByIndex {
			if !json.Valid(tc.Input) {
				continue
			}
			select {
			case out <- &Chunk{ToolCall: tc}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- &Chunk{Done: true, Usage: usage}:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

func convertMessagesToOpenAI(system string, messages []chatmsg.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range messages {
		role := string(m.Role)
		switch m.Role {
		case chatmsg.RoleContextFile, chatmsg.RoleDiff, chatmsg.RoleCDInstr, chatmsg.RolePlainText:
			role = openai.ChatMessageRoleUser
		}
		msg := openai.ChatCompletionMessage{Role: role, Content: m.Content}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Input),
				},
			})
		}
		out = append(out, msg)
		for _, tr := range m.ToolResults {
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    tr.Content,
				ToolCallID: tr.ToolCallID,
			})
		}
	}
	return out
}

func convertToolsToOpenAI(tools []chatmsg.ToolDesc) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  json.RawMessage(t.Parameters),
			},
		})
	}
	return out
}
