package main

import (
	"context"
	"errors"
	"os"

	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/shared"
	"github.com/storychop/storychop/internal/speech"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	db := openStoreIfPresent(config, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		DB:         db,
		Capture:    audio.NewExecCapture(config.Audio.RecordCommand),
		Playback:   audio.NewExecPlayback(config.Audio.PlayCommand),
		Recognizer: speech.NewWhisperRecognizer(config.Speech, logger),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "storychop",
		Usage:    "Record, transcribe, and share your life stories",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)

	if db != nil {
		db.Close()
	}

	if err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
