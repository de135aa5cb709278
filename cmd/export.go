package main

import (
	"context"
	"fmt"

	"github.com/storychop/storychop/internal/shared"
	"github.com/urfave/cli/v3"
)

// ExportAll bundles every story into one archive and prints its path.
func (r *Runner) ExportAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	stories, err := r.stories.List()
	if err != nil {
		return fmt.Errorf("failed to list stories: %w", err)
	}

	if len(stories) == 0 {
		return r.writePlain("Nothing to export.\n")
	}

	archive, err := r.bundler.ExportAll(stories)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlain("Exported %d stories\n", len(stories))
	return r.writePlain("Archive: %s\n", archive)
}

// ExportShare prepares one story for sharing and marks it shared.
func (r *Runner) ExportShare(ctx context.Context, cmd *cli.Command) error {
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

	item, err := r.bundler.PrepareStory(story)
	if err != nil {
		return fmt.Errorf("failed to prepare story: %w", err)
	}

	if err := r.stories.MarkShared(story.ID); err != nil {
		return fmt.Errorf("failed to mark story shared: %w", err)
	}

	r.writePlain("%s\n", item.Summary)
	return r.writePlain("Audio copy: %s\n", item.AudioPath)
}

// ExportCleanup deletes a previously produced export artifact.
func (r *Runner) ExportCleanup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: artifact path", shared.ErrMissingArgument)
	}

	r.bundler.Cleanup(path)
	return r.writePlain("Removed %s\n", path)
}
