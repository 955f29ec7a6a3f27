// Package caps loads and holds the model catalog ("caps") the daemon
// resolves chat/completion requests against: which models exist, which
// wire style serves each one, context window sizes, and the default
// chat/completion model names.
//
// Grounded on internal/config/config_llm.go's LLMConfig/LLMProviderConfig
// nesting (provider -> models, default model, base URL, API key), adapted
// from a provider-keyed map to a flat caps.yaml model catalog where a
// model binds directly to a wire style.
package caps

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelRecord describes one entry in the model catalog.
type ModelRecord struct {
	Name               string `yaml:"name"`
	Style              string `yaml:"style"` // "openai" | "anthropic" | "hf" | "bedrock" | "gemini"
	Endpoint           string `yaml:"endpoint"`
	APIKey             string `yaml:"api_key"`
	NCtx               int    `yaml:"n_ctx"`
	SupportsTools      bool   `yaml:"supports_tools"`
	SupportsScratchpad string `yaml:"supports_scratchpad"`
	TokenizerEncoding  string `yaml:"tokenizer_encoding"`
}

// Caps is one immutable snapshot of the model catalog, swapped as a whole
// on reload per the shared-state container's writers-swap-owned-values
// contract rather than mutated in place.
type Caps struct {
	DefaultChatModel       string                 `yaml:"default_chat_model"`
	DefaultCompletionModel string                 `yaml:"default_completion_model"`
	Models                 map[string]ModelRecord `yaml:"models"`
}

// Load reads a caps file from a local path. path mirrors the CLI's
// --address-url contract: a plain local path is read directly; the
// http(s):// and sentinel ("Refact"/"HF") forms are resolved by the
// caller before Load is reached, since fetching a remote catalog is one of
// the explicitly out-of-scope external collaborators.
func Load(path string) (*Caps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("caps: reading %s: %w", path, err)
	}

	var c Caps
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("caps: parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("caps: %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks cross-field invariants the loader can't express in the
// yaml tags alone: every named default model must actually be cataloged,
// and every model must name a non-empty style.
func (c *Caps) Validate() error {
	var issues []string

	if c.DefaultChatModel != "" {
		if _, ok := c.Models[c.DefaultChatModel]; !ok {
			issues = append(issues, fmt.Sprintf("default_chat_model %q is not in models", c.DefaultChatModel))
		}
	}
	if c.DefaultCompletionModel != "" {
		if _, ok := c.Models[c.DefaultCompletionModel]; !ok {
			issues = append(issues, fmt.Sprintf("default_completion_model %q is not in models", c.DefaultCompletionModel))
		}
	}
	for name, m := range c.Models {
		if m.Style == "" {
			issues = append(issues, fmt.Sprintf("model %q: style is required", name))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// ValidationError aggregates every caps issue found in one pass, the same
// reporting shape as internal/config's ConfigValidationError.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	msg := "invalid caps:"
	for _, issue := range e.Issues {
		msg += "\n- " + issue
	}
	return msg
}

// Resolve looks up a model record by name.
func (c *Caps) Resolve(model string) (ModelRecord, bool) {
	if c == nil {
		return ModelRecord{}, false
	}
	m, ok := c.Models[model]
	return m, ok
}

// TokenizerEncodings projects the catalog into the model->encoding map
// tokenizer.NewCache expects.
func (c *Caps) TokenizerEncodings() map[string]string {
	out := make(map[string]string, len(c.Models))
	for name, m := range c.Models {
		if m.TokenizerEncoding != "" {
			out[name] = m.TokenizerEncoding
		}
	}
	return out
}
