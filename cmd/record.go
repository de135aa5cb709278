package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/prompts"
	"github.com/storychop/storychop/internal/session"
	"github.com/storychop/storychop/internal/shared"
	"github.com/urfave/cli/v3"
)

// Record runs one recording session from prompt to saved story.
//
// The prompt resolves in precedence order: the --prompt flag, the pinned
// prompt, then the daily prompt. The session is driven by single-letter
// commands on stdin: p pauses or resumes, s saves, c cancels.
func (r *Runner) Record(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	prompt := cmd.String("prompt")
	usedOverride := false
	if prompt == "" {
		var err error
		if prompt, err = prompts.Effective(r.override, r.supply); err != nil {
			return fmt.Errorf("failed to resolve prompt: %w", err)
		}
		if pinned, ok, _ := r.override.Get(); ok && pinned == prompt {
			usedOverride = true
		}
	}

	recorder := session.NewRecorder(session.RecorderOpts{
		Capture: r.capture,
		Stories: r.stories,
		Dir:     r.config.Storage.RecordingsDir,
		Encoding: audio.EncodingConfig{
			SampleRate: r.config.Audio.SampleRate,
			Channels:   r.config.Audio.Channels,
			Extension:  r.config.Audio.Extension,
		},
		Logger: r.logger,
	})

	if err := recorder.Start(prompt); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	r.writePlain("Recording: %s\n", prompt)
	r.writePlain("Commands: [p]ause/resume  [s]ave  [c]ancel\n\n")

	go func() {
		for elapsed := range recorder.Ticks() {
			r.writePlain("\r  %s ", shared.FormatClock(elapsed))
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "p":
			if err := recorder.Toggle(); err != nil {
				r.writePlainln("cannot pause: %v", err)
			}
		case "c":
			if err := recorder.Cancel(); err != nil {
				r.writePlainln("cannot cancel: %v", err)
				continue
			}
			r.writePlainln("Recording discarded")
			return nil
		case "s", "":
			story, err := recorder.Save()
			if err != nil {
				if errors.Is(err, shared.ErrRecordingTooShort) {
					r.writePlainln("Too short to save, keep going (minimum %d seconds)", session.MinSaveSeconds)
					continue
				}
				return fmt.Errorf("failed to save recording: %w", err)
			}

			if usedOverride && r.config.Prompts.AutoClearOverride {
				if err := r.override.Clear(); err != nil {
					r.logger.Warn("failed to clear pinned prompt", "error", err)
				}
			}

			r.writePlainln("Saved %q (%s)", story.Title, shared.FormatClock(story.Duration))
			r.writePlain("Story ID: %s\n", story.ID)
			return nil
		default:
			r.writePlainln("Commands: [p]ause/resume  [s]ave  [c]ancel")
		}
	}

	// Stdin closed mid-session, discard rather than leave a live subprocess.
	recorder.Cancel()
	return scanner.Err()
}
