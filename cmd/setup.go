package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/shared"
	"github.com/urfave/cli/v3"
)

// openStoreIfPresent opens the store when it already exists on disk. Before
// setup has run there is nothing to open; commands that need the store tell
// the user to run setup.
func openStoreIfPresent(config *shared.Config, logger *log.Logger) *sql.DB {
	path := config.Database.Path
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	db, err := shared.OpenStore(config.Database)
	if err != nil {
		logger.Warn("failed to open store", "path", path, "error", err)
		return nil
	}
	return db
}

// Setup initializes the config file, storage directories, and database, then
// seeds the built-in prompt catalog.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}
	r.config = config

	for _, dir := range []string{config.Storage.RecordingsDir, config.Storage.ExportDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if config.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(config.Database.Path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	r.logger.Info("initializing store", "path", config.Database.Path)

	db, err := shared.OpenStore(config.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if r.db != nil {
		r.db.Close()
	}
	r.bind(db)

	r.logger.Info("seeding prompt catalog")
	if err := r.prompts.Seed(); err != nil {
		return fmt.Errorf("failed to seed prompts: %w", err)
	}

	r.logger.Infof("setup complete for store: %v", config.Database.Path)
	return nil
}
