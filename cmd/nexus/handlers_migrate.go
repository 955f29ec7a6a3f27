package main

import (
	"context"
	"fmt"

	"github.com/nexuslang/nexus-lsp/internal/config"
	"github.com/nexuslang/nexus-lsp/internal/storage"
)

func runMigrateUp(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	defer store.Close()

	fmt.Println("schema up to date:")
	fmt.Println("  memories:     ", cfg.Database.MemoriesPath)
	fmt.Println("  experimental: ", cfg.Database.ExperimentalPath)
	return nil
}

func runMigrateStatus(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.Open(cfg.Database)
	if err != nil {
		fmt.Println("status: FAIL")
		fmt.Println("  error:", err)
		return err
	}
	defer store.Close()

	ok := true
	if err := store.Memories.PingContext(ctx); err != nil {
		ok = false
		fmt.Println("  memories:     FAIL -", err)
	} else {
		fmt.Println("  memories:     ok -", cfg.Database.MemoriesPath)
	}
	if err := store.Experimental.PingContext(ctx); err != nil {
		ok = false
		fmt.Println("  experimental: FAIL -", err)
	} else {
		fmt.Println("  experimental: ok -", cfg.Database.ExperimentalPath)
	}

	if !ok {
		return fmt.Errorf("one or more databases failed their status check")
	}
	fmt.Println("status: OK")
	return nil
}
