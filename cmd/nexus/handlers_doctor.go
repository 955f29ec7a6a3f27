package main

import (
	"context"
	"fmt"

	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/nexuslang/nexus-lsp/internal/doctor"
	"github.com/nexuslang/nexus-lsp/internal/storage"
)

func runDoctor(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	capsData, capsErr := loadCaps(cfg.LLM.CapsPath)

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	report := doctor.Run(ctx, cfg, capsData, capsErr, store)
	for _, check := range report.Checks {
		status := "ok"
		if !check.OK {
			status = "FAIL - " + check.Err
		}
		fmt.Printf("  %-28s %s\n", check.Name, status)
	}

	if report.Failed() {
		return fmt.Errorf("one or more checks failed")
	}
	fmt.Println("all checks passed")
	return nil
}
