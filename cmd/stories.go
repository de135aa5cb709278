package main

import (
	"context"
	"fmt"
	"time"

	"github.com/storychop/storychop/internal/session"
	"github.com/storychop/storychop/internal/shared"
	"github.com/storychop/storychop/internal/tasks"
	"github.com/storychop/storychop/internal/transcribe"
	"github.com/urfave/cli/v3"
)

// StoriesList prints the story library, newest first.
func (r *Runner) StoriesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	stories, err := r.stories.List()
	if err != nil {
		return fmt.Errorf("failed to list stories: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stories, cmd.Bool("pretty"))
	}

	if len(stories) == 0 {
		return r.writePlain("No stories yet. Run 'storychop record' to get started.\n")
	}

	for _, story := range stories {
		status := " "
		if story.IsTranscribed {
			status = "T"
		}
		if err := r.writePlain("%s  [%s] %s  %s  %s\n",
			story.ID, status, story.Date.Format("2006-01-02"), shared.FormatClock(story.Duration), story.Title); err != nil {
			return err
		}
	}
	return nil
}

// StoriesShow prints one story including its transcription.
func (r *Runner) StoriesShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: story id", shared.ErrMissingArgument)
	}

	story, err := r.stories.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(story, true)
	}

	r.writePlain("Title: %s\n", story.Title)
	r.writePlain("Recorded: %s\n", story.Date.Format("Jan 2, 2006 at 3:04 PM"))
	r.writePlain("Prompt: %s\n", story.Prompt)
	r.writePlain("Length: %s\n", shared.FormatClock(story.Duration))
	r.writePlain("Shared: %v\n", story.IsShared)
	if story.IsTranscribed {
		r.writePlainln("Transcription:")
		r.writePlain("%s\n", story.Transcription)
	}
	return nil
}

// StoriesPlay plays a story's recording, printing the cursor until it ends.
func (r *Runner) StoriesPlay(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: story id", shared.ErrMissingArgument)
	}

	story, err := r.stories.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}

	player := session.NewPlayer(session.PlayerOpts{Story: story, Playback: r.playback, Logger: r.logger})
	defer player.Close()

	if err := player.Setup(); err != nil {
		return fmt.Errorf("cannot play: %w", err)
	}

	if err := player.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	r.writePlain("Playing %q\n", story.Title)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pos := <-player.Updates():
			r.writePlain("\r  %s / %s ", shared.FormatClock(int(pos)), shared.FormatClock(story.Duration))
		case <-time.After(250 * time.Millisecond):
		}

		if state := player.State(); state != session.PlayerPlaying {
			if state == session.PlayerCompleted {
				r.writePlainln("Done")
			}
			return nil
		}
	}
}

// StoriesTranscribe transcribes one story and prints the result.
func (r *Runner) StoriesTranscribe(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: story id", shared.ErrMissingArgument)
	}

	story, err := r.stories.Get(id)
	if err != nil {
		return fmt.Errorf("failed to load story: %w", err)
	}

	r.writePlain("Transcribing %q...\n", story.Title)

	results := make(chan transcribe.Result, 1)
	if err := r.pipeline.Transcribe(ctx, story, func(res transcribe.Result) {
		results <- res
	}); err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}

	select {
	case <-ctx.Done():
		r.pipeline.Cancel()
		return ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return fmt.Errorf("transcription failed: %w", res.Err)
		}
		r.writePlainln("Transcription:")
		return r.writePlain("%s\n", res.Text)
	}
}

// StoriesTranscribeAll transcribes the whole untranscribed backlog.
func (r *Runner) StoriesTranscribeAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range prog {
			if update.Total > 0 {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Run(ctx, prog, tasks.BulkOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(prog)
	<-done

	if err != nil {
		return fmt.Errorf("bulk transcription failed: %w", err)
	}

	r.writePlainln("Transcribed %d of %d (skipped %d, failed %d)",
		result.Transcribed, result.Total, result.Skipped, result.Failed)
	return nil
}
