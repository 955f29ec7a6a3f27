// Command nexus is the coding-assistant daemon's entry point: an HTTP
// server an editor talks to over /v1/chat and its siblings, backed by a
// tool-executing chat-turn orchestrator and two local SQLite databases.
//
// Start the server:
//
//	nexus serve --config nexus.yaml
//
// Validate configuration and catalog reachability:
//
//	nexus doctor --config nexus.yaml
//
// Apply pending database migrations:
//
//	nexus migrate up
//
// Configuration can also be provided via environment variables:
//
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, HF_API_KEY: model
//     provider credentials, one per wire style bound in the loaded caps
//     catalog.
//   - AWS_REGION (plus the default AWS credential chain): enables the
//     bedrock wire style.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "nexus",
		Short:        "nexus-lsp coding-assistant daemon",
		Version:      version + " (commit: " + commit + ", built: " + date + ")",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd(), buildDoctorCmd(), buildMigrateCmd())
	return rootCmd
}

func resolveConfigPath(path string) string {
	if path == "" {
		return "nexus.yaml"
	}
	return path
}
