package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/the-names-must-flow/internal/common"
	"github.com/Veraticus/the-names-must-flow/internal/config"
	"github.com/Veraticus/the-names-must-flow/internal/engine"
	"github.com/Veraticus/the-names-must-flow/internal/llm"
	"github.com/Veraticus/the-names-must-flow/internal/service"
	"github.com/Veraticus/the-names-must-flow/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the rule store with proper path expansion.
func initStorage(ctx context.Context) (service.RuleStore, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/names/names.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newSynthesizer creates the configured synthesizer, or the disabled one
// when model calls are switched off.
func newSynthesizer(withLLM bool) (engine.Synthesizer, error) {
	if !withLLM {
		return llm.Disabled{}, nil
	}

	cfg, err := config.LoadLLMConfig()
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError("no LLM provider configured; set an API key or pass --no-llm to run on rules alone", err)
		}
		return nil, err
	}

	synthesizer, err := llm.NewSynthesizer(cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	return synthesizer, nil
}

// newEngine wires storage and synthesizer into a cleanup engine. The
// returned cleanup function closes both and must always be called.
func newEngine(ctx context.Context, withLLM bool) (*engine.CleanupEngine, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	synthesizer, err := newSynthesizer(withLLM)
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
		return nil, nil, err
	}

	cleanup := func() {
		if closer, ok := synthesizer.(io.Closer); ok {
			if closeErr := closer.Close(); closeErr != nil {
				slog.Error("failed to close synthesizer", "error", closeErr)
			}
		}
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("failed to close storage", "error", closeErr)
		}
	}

	return engine.NewWithConfig(store, synthesizer, config.LoadEngineConfig()), cleanup, nil
}
