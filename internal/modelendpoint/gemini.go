package modelendpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// GeminiEndpoint speaks Google's Generative AI wire format: a Content/Part
// stream consumed via Go 1.23's iter.Seq2 iterator. Grounded on
// internal/agent/providers/google.go.
type GeminiEndpoint struct {
	client *genai.Client
}

// NewGeminiEndpoint creates a Gemini-style endpoint.
func NewGeminiEndpoint(ctx context.Context, apiKey string) (*GeminiEndpoint, error) {
	if apiKey == "" {
		return &GeminiEndpoint{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: creating gemini client: %w", err)
	}
	return &GeminiEndpoint{client: client}, nil
}

// Style identifies this endpoint's wire format.
func (e *GeminiEndpoint) Style() string { return "gemini" }

// Complete streams a Gemini GenerateContent completion.
func (e *GeminiEndpoint) Complete(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	if e.client == nil {
		return nil, errors.New("modelendpoint: gemini endpoint has no API key configured")
	}

	contents, err := convertMessagesToGemini(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: gemini message conversion: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if len(req.Tools) > 0 {
		config.Tools = convertToolsToGemini(req.Tools)
	}

	out := make(chan *Chunk, 16)
	go func() {
		defer close(out)

		streamIter := e.client.Models.GenerateContentStream(ctx, req.Model, contents, config)
		for resp, err := range streamIter {
			select {
			case <-ctx.Done():
				out <- &Chunk{Error: ctx.Err(), Done: true}
				return
			default:
			}
			if err != nil {
				out <- &Chunk{Error: fmt.Errorf("modelendpoint: gemini stream: %w", err), Done: true}
				return
			}
			if resp == nil {
				continue
			}
			for _, candidate := range resp.Candidates {
				if candidate == nil || candidate.Content == nil {
					continue
				}
				for _, part := range candidate.Content.Parts {
					if part == nil {
						continue
					}
					if part.Text != "" {
						out <- &Chunk{Text: part.Text}
					}
					if part.FunctionCall != nil {
						argsJSON, jsonErr := json.Marshal(part.FunctionCall.Args)
						if jsonErr != nil {
							argsJSON = []byte("{}")
						}
						out <- &Chunk{ToolCall: &chatmsg.ToolCall{
							ID:    "gemini_" + part.FunctionCall.Name,
							Name:  part.FunctionCall.Name,
							Input: argsJSON,
						}}
					}
				}
			}
		}
		out <- &Chunk{Done: true}
	}()

	return out, nil
}

func convertMessagesToGemini(messages []chatmsg.ChatMessage) ([]*genai.Content, error) {
	var out []*genai.Content
	for _, m := range messages {
		content := &genai.Content{}
		switch m.Role {
		case chatmsg.RoleAssistant:
			content.Role = genai.RoleModel
		default:
			content.Role = genai.RoleUser
		}

		if m.Content != "" {
			content.Parts = append(content.Parts, &genai.Part{Text: m.Content})
		}

		for _, tc := range m.ToolCalls {
			var args map[string]any
			if err := json.Unmarshal(tc.Input, &args); err != nil {
				return nil, fmt.Errorf("tool call %s has invalid json arguments: %w", tc.ID, err)
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
			})
		}

		for _, tr := range m.ToolResults {
			var response map[string]any
			if err := json.Unmarshal([]byte(tr.Content), &response); err != nil {
				response = map[string]any{"result": tr.Content, "error": tr.IsError}
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{Name: toolNameForResult(messages, tr.ToolCallID), Response: response},
			})
		}

		if len(content.Parts) > 0 {
			out = append(out, content)
		}
	}
	return out, nil
}

// toolNameForResult recovers the tool name behind a ToolResult by scanning
// back through prior ToolCalls, since Gemini's FunctionResponse is keyed by
// name rather than call ID.
func toolNameForResult(messages []chatmsg.ChatMessage, toolCallID string) string {
	for _, m := range messages {
		for _, tc := range m.ToolCalls {
			if tc.ID == toolCallID {
				return tc.Name
			}
		}
	}
	return ""
}

func convertToolsToGemini(tools []chatmsg.ToolDesc) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(t.Parameters, &schemaMap); err != nil {
			continue
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchemaToGemini(schemaMap),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// convertSchemaToGemini recursively maps a JSON Schema map to Gemini's Schema
// type; grounded on internal/agent/toolconv/gemini.go's ToGeminiSchema.
func convertSchemaToGemini(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = convertSchemaToGemini(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = convertSchemaToGemini(items)
	}

	return schema
}
