package main

import (
	"context"
	"fmt"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
	"github.com/urfave/cli/v3"
)

// PromptsDaily shows today's prompt, drawing a fresh one on the first call
// of the day.
func (r *Runner) PromptsDaily(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	prompt, err := r.supply.CurrentPrompt()
	if err != nil {
		return fmt.Errorf("failed to resolve daily prompt: %w", err)
	}

	if pinned, ok, _ := r.override.Get(); ok {
		r.writePlain("Pinned: %s\n", pinned)
		return r.writePlain("Daily: %s\n", prompt)
	}

	return r.writePlain("%s\n", prompt)
}

// PromptsList prints the prompt catalog.
func (r *Runner) PromptsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	catalog, err := r.prompts.List()
	if err != nil {
		return fmt.Errorf("failed to list prompts: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(catalog, cmd.Bool("pretty"))
	}

	for _, prompt := range catalog {
		marker := " "
		if prompt.IsUserCreated {
			marker = "*"
		}
		if err := r.writePlain("%s [%s] %s\n", marker, prompt.Category, prompt.Text); err != nil {
			return err
		}
	}
	return nil
}

// PromptsAdd adds a custom prompt to the catalog and invalidates the cached
// rotation pool so it is eligible immediately.
func (r *Runner) PromptsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	text := cmd.StringArg("text")
	if text == "" {
		return fmt.Errorf("%w: prompt text", shared.ErrMissingArgument)
	}

	prompt := &models.Prompt{
		Text:          text,
		Category:      cmd.String("category"),
		IsUserCreated: true,
	}
	if err := r.prompts.Create(prompt); err != nil {
		return fmt.Errorf("failed to add prompt: %w", err)
	}

	r.supply.Refresh()

	return r.writePlain("Added prompt to %s: %s\n", prompt.Category, prompt.Text)
}

// PromptsSelect pins a prompt for the next recording session.
func (r *Runner) PromptsSelect(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	text := cmd.StringArg("text")
	if err := r.override.Set(text); err != nil {
		return fmt.Errorf("failed to pin prompt: %w", err)
	}

	return r.writePlain("Pinned: %s\n", text)
}

// PromptsClear clears the pinned prompt.
func (r *Runner) PromptsClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireStore(); err != nil {
		return err
	}

	if err := r.override.Clear(); err != nil {
		return fmt.Errorf("failed to clear pinned prompt: %w", err)
	}

	return r.writePlain("Pinned prompt cleared\n")
}
