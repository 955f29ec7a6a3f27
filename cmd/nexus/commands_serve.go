package main

import (
	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that starts the daemon's HTTP
// surface: /v1/chat and its siblings, backed by the tool-executing
// orchestrator and the two SQLite stores.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		flags      config.ServeFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the nexus-lsp daemon",
		Long: `Start the nexus-lsp daemon.

Loads configuration, opens the memories and experimental_db SQLite stores,
resolves the model catalog, wires every configured tool behind the
resolved policy, and serves the editor-facing HTTP API until a SIGINT or
SIGTERM is received.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			return runServe(cmd.Context(), configPath, flags)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nexus.yaml", "Path to YAML configuration file")
	cmd.Flags().StringVar(&flags.APIKey, "api-key", "", "Bearer token the HTTP surface requires from callers")
	cmd.Flags().StringVar(&flags.AddressURL, "address-url", "", "Path to the model caps catalog")
	cmd.Flags().IntVar(&flags.HTTPPort, "http-port", 0, "HTTP port to listen on")
	cmd.Flags().BoolVar(&flags.LogsStderr, "logs-stderr", false, "Write logs to stderr instead of the configured handler")
	cmd.Flags().BoolVar(&flags.Experimental, "experimental", false, "Enable experimental chat-thread and chore endpoints")
	cmd.Flags().BoolVar(&flags.InsideContainer, "inside-container", false, "Signal the daemon is running inside a container")
	cmd.Flags().StringVar(&flags.PingMessage, "ping-message", "", "Message /healthz echoes back")

	return cmd
}
