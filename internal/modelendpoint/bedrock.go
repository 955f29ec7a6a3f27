package modelendpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// BedrockEndpoint speaks AWS Bedrock's Converse/ConverseStream wire format,
// the gateway through which Bedrock-hosted Claude, Titan, Llama, Mistral and
// Cohere models are reached. Grounded on
// internal/agent/providers/bedrock.go.
type BedrockEndpoint struct {
	client *bedrockruntime.Client
}

// BedrockConfig configures AWS credentials for a BedrockEndpoint.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewBedrockEndpoint creates a Bedrock-style endpoint using the given
// explicit credentials, or the default AWS credential chain (env, IAM role)
// when AccessKeyID is empty.
func NewBedrockEndpoint(ctx context.Context, cfg BedrockConfig) (*BedrockEndpoint, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: loading AWS config: %w", err)
	}

	return &BedrockEndpoint{client: bedrockruntime.NewFromConfig(awsCfg)}, nil
}

// Style identifies this endpoint's wire format.
func (e *BedrockEndpoint) Style() string { return "bedrock" }

// Complete streams a Bedrock ConverseStream completion.
func (e *BedrockEndpoint) Complete(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	if e.client == nil {
		return nil, errors.New("modelendpoint: bedrock endpoint has no client configured")
	}

	messages, err := convertMessagesToBedrock(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: bedrock message conversion: %w", err)
	}

	converseReq := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(req.Model),
		Messages: messages,
	}
	if req.System != "" {
		converseReq.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		if maxTokens > math.MaxInt32 {
			maxTokens = math.MaxInt32
		}
		converseReq.InferenceConfig = &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(maxTokens)),
		}
	}
	if len(req.Tools) > 0 {
		converseReq.ToolConfig = convertToolsToBedrock(req.Tools)
	}

	stream, err := e.client.ConverseStream(ctx, converseReq)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: bedrock ConverseStream: %w", err)
	}

	out := make(chan *Chunk, 16)
	go processBedrockStream(ctx, stream, out)
	return out, nil
}

func processBedrockStream(ctx context.Context, stream *bedrockruntime.ConverseStreamOutput, out chan<- *Chunk) {
	defer close(out)

	eventStream := stream.GetStream()
	defer eventStream.Close()

	var currentTool *chatmsg.ToolCall
	var toolInput strings.Builder

	eventChan := eventStream.Events()
	for {
		select {
		case <-ctx.Done():
			out <- &Chunk{Error: ctx.Err(), Done: true}
			return
		case event, ok := <-eventChan:
			if !ok {
				if currentTool != nil {
					currentTool.Input = json.RawMessage(toolInput.String())
					out <- &Chunk{ToolCall: currentTool}
				}
				if err := eventStream.Err(); err != nil {
					out <- &Chunk{Error: fmt.Errorf("modelendpoint: bedrock stream: %w", err), Done: true}
				} else {
					out <- &Chunk{Done: true}
				}
				return
			}

			switch ev := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockStart:
				if toolUse, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
					currentTool = &chatmsg.ToolCall{
						ID:   aws.ToString(toolUse.Value.ToolUseId),
						Name: aws.ToString(toolUse.Value.Name),
					}
					toolInput.Reset()
				}
			case *types.ConverseStreamOutputMemberContentBlockDelta:
				switch delta := ev.Value.Delta.(type) {
				case *types.ContentBlockDeltaMemberText:
					if delta.Value != "" {
						out <- &Chunk{Text: delta.Value}
					}
				case *types.ContentBlockDeltaMemberToolUse:
					if delta.Value.Input != nil {
						toolInput.WriteString(*delta.Value.Input)
					}
				}
			case *types.ConverseStreamOutputMemberContentBlockStop:
				if currentTool != nil {
					currentTool.Input = json.RawMessage(toolInput.String())
					out <- &Chunk{ToolCall: currentTool}
					currentTool = nil
					toolInput.Reset()
				}
			case *types.ConverseStreamOutputMemberMessageStop:
				out <- &Chunk{Done: true}
				return
			}
		}
	}
}

func convertMessagesToBedrock(messages []chatmsg.ChatMessage) ([]types.Message, error) {
	out := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		var content []types.ContentBlock
		if m.Content != "" {
			content = append(content, &types.ContentBlockMemberText{Value: m.Content})
		}
		for _, tr := range m.ToolResults {
			content = append(content, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: aws.String(tr.ToolCallID),
					Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: tr.Content}},
				},
			})
		}
		for _, tc := range m.ToolCalls {
			var inputDoc any
			if err := json.Unmarshal(tc.Input, &inputDoc); err != nil {
				return nil, fmt.Errorf("tool call %s has invalid json arguments: %w", tc.ID, err)
			}
			content = append(content, &types.ContentBlockMemberToolUse{
				Value: types.ToolUseBlock{
					ToolUseId: aws.String(tc.ID),
					Name:      aws.String(tc.Name),
					Input:     document.NewLazyDocument(inputDoc),
				},
			})
		}
		if len(content) == 0 {
			continue
		}

		role := types.ConversationRoleUser
		if m.Role == chatmsg.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{Role: role, Content: content})
	}
	return out, nil
}

func convertToolsToBedrock(tools []chatmsg.ToolDesc) *types.ToolConfiguration {
	bedrockTools := make([]types.Tool, len(tools))
	for i, t := range tools {
		var schema any
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		bedrockTools[i] = &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		}
	}
	return &types.ToolConfiguration{Tools: bedrockTools}
}
