package main

import (
	"github.com/spf13/cobra"
)

// buildDoctorCmd creates the "doctor" command: load configuration, open both
// databases, resolve the caps catalog, and print the result of every check
// internal/doctor runs.
func buildDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, catalog, and database reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			return runDoctor(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nexus.yaml", "Path to YAML configuration file")
	return cmd
}
