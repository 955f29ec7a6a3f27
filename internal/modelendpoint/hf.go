package modelendpoint

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nexuslang/nexus-lsp/pkg/chatmsg"
)

// hfDefaultBaseURL is the Hugging Face Inference Endpoints / TGI default
// host, overridable per deployment via NewHFEndpoint's baseURL argument.
const hfDefaultBaseURL = "https://api-inference.huggingface.co"

// HFEndpoint speaks the Hugging Face Text Generation Inference server's
// `/generate_stream` SSE protocol. No pack example wires a dedicated HF SDK
// (digitallysavvy-go-ai's huggingface provider itself talks raw net/http
// under the hood, see DESIGN.md) so this adapter is built directly on
// net/http and a line-oriented SSE scanner rather than a third-party client.
type HFEndpoint struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewHFEndpoint creates a Hugging Face TGI endpoint. baseURL may point at a
// dedicated Inference Endpoint; an empty baseURL falls back to the public
// Inference API host.
func NewHFEndpoint(apiKey, baseURL string) *HFEndpoint {
	if baseURL == "" {
		baseURL = hfDefaultBaseURL
	}
	return &HFEndpoint{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Style identifies this endpoint's wire format.
func (e *HFEndpoint) Style() string { return "hf" }

type hfStreamRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Stream     bool         `json:"stream"`
}

type hfParameters struct {
	Temperature    float64 `json:"temperature,omitempty"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfStreamEvent struct {
	Token struct {
		Text    string `json:"text"`
		Special bool   `json:"special"`
	} `json:"token"`
	Details *struct {
		FinishReason string `json:"finish_reason"`
	} `json:"details"`
}

// Complete streams a TGI text generation over SSE. HF tools (like "thinking"
// and function calling) aren't part of the TGI text-generation protocol, so
// req.Tools is ignored for hf-style models that don't support it.
func (e *HFEndpoint) Complete(ctx context.Context, req *Request) (<-chan *Chunk, error) {
	prompt := renderHFPrompt(req.System, req.Messages)

	body := hfStreamRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			Temperature:    req.Temperature,
			MaxNewTokens:   req.MaxTokens,
			ReturnFullText: false,
		},
		Stream: true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: hf request encoding: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", e.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: hf request build: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("modelendpoint: hf request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("modelendpoint: hf returned status %d", resp.StatusCode)
	}

	out := make(chan *Chunk, 16)
	go processHFStream(resp.Body, out)
	return out, nil
}

func processHFStream(body io.ReadCloser, out chan<- *Chunk) {
	defer body.Close()
	defer close(out)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var event hfStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			out <- &Chunk{Error: fmt.Errorf("modelendpoint: hf event decode: %w", err)}
			return
		}
		if event.Token.Text != "" && !event.Token.Special {
			out <- &Chunk{Text: event.Token.Text}
		}
		if event.Details != nil {
			out <- &Chunk{Done: true}
			return
		}
	}
	if err := scanner.Err(); err != nil {
		out <- &Chunk{Error: fmt.Errorf("modelendpoint: hf stream read: %w", err)}
		return
	}
	out <- &Chunk{Done: true}
}

func renderHFPrompt(system string, messages []chatmsg.ChatMessage) string {
	var b strings.Builder
	if system != "" {
		b.WriteString("System: ")
		b.WriteString(system)
		b.WriteByte('\n')
	}
	for _, m := range messages {
		switch m.Role {
		case chatmsg.RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	b.WriteString("Assistant: ")
	return b.String()
}
