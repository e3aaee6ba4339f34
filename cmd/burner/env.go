package main

import (
	"fmt"
	"os"

	"github.com/goodtune/burner/internal/config"
	"github.com/goodtune/burner/internal/storage"
	"github.com/rs/zerolog"
)

// commandEnv is the configuration, store and logger shared by one-shot commands.
type commandEnv struct {
	cfg    *config.Config
	store  storage.Store
	logger zerolog.Logger
}

// openCommandEnv loads configuration and opens storage. Logs go to stderr so
// command output on stdout stays machine readable.
func openCommandEnv() (*commandEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &commandEnv{cfg: cfg, store: store, logger: logger}, nil
}

func (e *commandEnv) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error().Err(err).Msg("Failed to close storage")
	}
}
