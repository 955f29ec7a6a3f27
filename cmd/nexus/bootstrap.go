package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nexuslang/nexus-lsp/internal/atcommands"
	"github.com/nexuslang/nexus-lsp/internal/caps"
	"github.com/nexuslang/nexus-lsp/internal/chattools"
	"github.com/nexuslang/nexus-lsp/internal/chatturn"
	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/nexuslang/nexus-lsp/internal/modelendpoint"
	"github.com/nexuslang/nexus-lsp/internal/scratchpad"
	"github.com/nexuslang/nexus-lsp/internal/sharedstate"
	"github.com/nexuslang/nexus-lsp/internal/storage"
	"github.com/nexuslang/nexus-lsp/internal/tokenizer"
	"github.com/nexuslang/nexus-lsp/internal/tools/policy"
	execpkg "github.com/nexuslang/nexus-lsp/internal/tools/exec"
	"github.com/nexuslang/nexus-lsp/internal/toolregistry"
)

// loadCaps resolves cfg.LLM.CapsPath the way --address-url is documented to
// behave: a plain local path is read directly, while the http(s):// and
// "Refact"/"HF" sentinel forms name a remote catalog this daemon doesn't
// fetch on its own (an out-of-scope external collaborator, same split
// internal/caps/caps.go's own doc comment draws).
func loadCaps(path string) (*caps.Caps, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") ||
		trimmed == "Refact" || trimmed == "HF" {
		return nil, fmt.Errorf("remote caps catalogs (%q) are not fetched by this daemon; point --address-url at a local caps file", trimmed)
	}
	return caps.Load(trimmed)
}

// buildModelRegistry constructs one modelendpoint.Endpoint per distinct
// wire style named in the catalog, reading provider credentials from the
// environment (ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY,
// HF_API_KEY, the default AWS credential chain), and binds every cataloged
// model name to its style.
func buildModelRegistry(ctx context.Context, capsData *caps.Caps) (*modelendpoint.Registry, error) {
	reg := modelendpoint.NewRegistry()
	seenStyle := make(map[string]bool, len(capsData.Models))

	for _, rec := range capsData.Models {
		if seenStyle[rec.Style] {
			continue
		}
		apiKey := rec.APIKey
		switch rec.Style {
		case "anthropic":
			if apiKey == "" {
				apiKey = os.Getenv("ANTHROPIC_API_KEY")
			}
			if apiKey == "" {
				continue
			}
			reg.RegisterStyle(rec.Style, modelendpoint.NewAnthropicEndpoint(apiKey))
		case "openai":
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}
			if apiKey == "" {
				continue
			}
			reg.RegisterStyle(rec.Style, modelendpoint.NewOpenAIEndpoint(apiKey))
		case "gemini":
			if apiKey == "" {
				apiKey = os.Getenv("GEMINI_API_KEY")
			}
			if apiKey == "" {
				continue
			}
			ep, err := modelendpoint.NewGeminiEndpoint(ctx, apiKey)
			if err != nil {
				return nil, fmt.Errorf("gemini endpoint: %w", err)
			}
			reg.RegisterStyle(rec.Style, ep)
		case "hf":
			if apiKey == "" {
				apiKey = os.Getenv("HF_API_KEY")
			}
			if apiKey == "" || rec.Endpoint == "" {
				continue
			}
			reg.RegisterStyle(rec.Style, modelendpoint.NewHFEndpoint(apiKey, rec.Endpoint))
		case "bedrock":
			if os.Getenv("AWS_REGION") == "" {
				continue
			}
			ep, err := modelendpoint.NewBedrockEndpoint(ctx, modelendpoint.BedrockConfig{Region: os.Getenv("AWS_REGION")})
			if err != nil {
				return nil, fmt.Errorf("bedrock endpoint: %w", err)
			}
			reg.RegisterStyle(rec.Style, ep)
		default:
			continue
		}
		seenStyle[rec.Style] = true
	}

	for name, rec := range capsData.Models {
		reg.BindModel(name, rec.Style)
	}
	return reg, nil
}

// newToolRegistry builds an empty registry so it can be handed to
// sharedstate.New before any tool (several of which take the resulting
// *sharedstate.State as a constructor argument) is registered.
func newToolRegistry() *toolregistry.Registry {
	return toolregistry.NewRegistry(policy.NewResolver())
}

// populateToolRegistry wires every tool named in cfg into reg, the same
// split config_tools.go draws between per-integration connection settings
// and the access-control policy that fronts them.
func populateToolRegistry(reg *toolregistry.Registry, cfg config.ToolsConfig, state *sharedstate.State, memories *storage.MemoryStore, model string) *policy.Policy {
	must := func(t toolregistry.Tool, err error) {
		if err != nil {
			slog.Warn("tool unavailable", "tool", t.Name(), "error", err)
			return
		}
		if regErr := reg.Register(t); regErr != nil {
			slog.Warn("tool registration failed", "tool", t.Name(), "error", regErr)
		}
	}

	must(chattools.NewCatTool(state), nil)
	must(chattools.NewTreeTool(state), nil)
	must(chattools.NewDefinitionTool(state), nil)
	must(chattools.NewReferencesTool(state), nil)
	must(chattools.NewSearchTool(state), nil)
	must(chattools.NewLocateTool(state, model), nil)
	must(chattools.NewPatchTool(state), nil)
	must(chattools.NewKnowledgeTool(memories), nil)
	must(chattools.NewShellTool(execpkg.NewManager(firstRoot(cfg.WorkspaceRoots))), nil)

	if cfg.Docker.Enabled {
		dockerTool, err := chattools.NewDockerTool(cfg.Docker.FilterImage)
		must(dockerTool, err)
	}
	if cfg.Postgres.Enabled {
		must(chattools.NewPostgresTool(cfg.Postgres.DSN), nil)
	}
	if cfg.MySQL.Enabled {
		must(chattools.NewMySQLTool(cfg.MySQL.DSN), nil)
	}
	if cfg.GitHub.Enabled {
		must(chattools.NewGitHubTool(cfg.GitHub.Token), nil)
	}
	if cfg.GitLab.Enabled {
		must(chattools.NewGitLabTool(cfg.GitLab.Token, cfg.GitLab.BaseURL), nil)
	}
	if cfg.Chrome.Enabled {
		timeout := cfg.Chrome.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		must(chattools.NewChromeTool(timeout), nil)
	}

	return resolvePolicy(cfg.Policy)
}

func resolvePolicy(cfg config.ToolPolicyConfig) *policy.Policy {
	p := policy.GetProfilePolicy(cfg.Profile)
	if p == nil {
		p = policy.ProfileDefaults[policy.ProfileCoding]
	}
	merged := &policy.Policy{
		Profile: p.Profile,
		Allow:   append(append([]string{}, p.Allow...), cfg.Allow...),
		Deny:    append(append([]string{}, p.Deny...), cfg.Deny...),
		AskUser: append(append([]string{}, p.AskUser...), cfg.AskUser...),
	}
	return merged
}

func firstRoot(roots []string) string {
	if len(roots) == 0 {
		return "."
	}
	return roots[0]
}

// buildOrchestrator assembles the chat-turn loop: at-command registry,
// scratchpad table (chat-completion plus a passthrough for raw replay),
// and the prompt table the orchestrator renders per chat mode.
func buildOrchestrator(state *sharedstate.State) (*chatturn.Orchestrator, *atcommands.Registry) {
	commands := atcommands.NewRegistry()

	scratchpads := scratchpad.NewRegistry()
	scratchpads.Register(scratchpad.NewChatCompletion())
	scratchpads.Register(scratchpad.NewPassthrough())
	scratchpads.SetDefault("chat-completion")

	prompts := chatturn.NewPromptTable()
	return chatturn.NewOrchestrator(state, commands, scratchpads, prompts), commands
}

func buildTokenizerCache(capsData *caps.Caps) *tokenizer.Cache {
	return tokenizer.NewCache(capsData.TokenizerEncodings())
}
