// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes config, directories, store, and the prompt catalog.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config, storage directories, and the story store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// recordCommand drives an interactive recording session.
func recordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "record",
		Aliases: []string{"rec"},
		Usage:   "Record a new story",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "prompt",
				Aliases: []string{"p"},
				Usage:   "Prompt to answer, overriding the daily prompt",
			},
		},
		Action: r.Record,
	}
}

// storiesCommand handles story library operations
func storiesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "stories",
		Aliases: []string{"st"},
		Usage:   "Browse and work with recorded stories",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded stories, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.StoriesList,
			},
			{
				Name:  "show",
				Usage: "Show one story including its transcription",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.StoriesShow,
			},
			{
				Name:  "play",
				Usage: "Play a story's recording",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.StoriesPlay,
			},
			{
				Name:  "transcribe",
				Usage: "Transcribe one story",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.StoriesTranscribe,
			},
			{
				Name:  "transcribe-all",
				Usage: "Transcribe every story that has no transcription yet",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers",
						Value: 2,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Transcriptions per second",
						Value: 1.0,
					},
				},
				Action: r.StoriesTranscribeAll,
			},
		},
	}
}

// promptsCommand handles the prompt catalog and daily rotation.
func promptsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "prompts",
		Aliases: []string{"pr"},
		Usage:   "Manage recording prompts",
		Commands: []*cli.Command{
			{
				Name:   "daily",
				Usage:  "Show today's prompt",
				Action: r.PromptsDaily,
			},
			{
				Name:  "list",
				Usage: "List the prompt catalog",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PromptsList,
			},
			{
				Name:  "add",
				Usage: "Add a custom prompt to the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "text",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category for the new prompt",
						Value: "Custom",
					},
				},
				Action: r.PromptsAdd,
			},
			{
				Name:  "select",
				Usage: "Pin a prompt for the next recording session",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "text",
					},
				},
				Action: r.PromptsSelect,
			},
			{
				Name:   "clear",
				Usage:  "Clear the pinned prompt",
				Action: r.PromptsClear,
			},
		},
	}
}

// exportCommand handles export and sharing operations.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "export",
		Aliases: []string{"ex"},
		Usage:   "Export and share stories",
		Commands: []*cli.Command{
			{
				Name:   "all",
				Usage:  "Bundle every story into a zip archive",
				Action: r.ExportAll,
			},
			{
				Name:  "share",
				Usage: "Prepare one story for sharing",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.ExportShare,
			},
			{
				Name:  "cleanup",
				Usage: "Delete a previously produced export artifact",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Action: r.ExportCleanup,
			},
		},
	}
}

// tuiCommand launches the interactive story browser.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Interactive story browser",
		Action:  r.TUI,
	}
}
