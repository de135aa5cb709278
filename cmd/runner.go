package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/export"
	"github.com/storychop/storychop/internal/prompts"
	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
	"github.com/storychop/storychop/internal/speech"
	"github.com/storychop/storychop/internal/tasks"
	"github.com/storychop/storychop/internal/transcribe"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	db         *sql.DB
	stories    *repositories.StoryRepository
	prompts    *repositories.PromptRepository
	state      *repositories.StateRepository
	supply     *prompts.SupplyService
	override   *prompts.Override
	capture    audio.Capture
	playback   audio.Playback
	recognizer speech.Recognizer
	pipeline   *transcribe.Pipeline
	engine     *tasks.TranscribeEngine
	bundler    *export.Bundler
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	DB         *sql.DB
	Capture    audio.Capture
	Playback   audio.Playback
	Recognizer speech.Recognizer
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		db:         opts.DB,
		capture:    opts.Capture,
		playback:   opts.Playback,
		recognizer: opts.Recognizer,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if opts.DB != nil {
		r.bind(opts.DB)
	}

	r.bundler = export.NewBundler(export.BundlerOpts{
		Dir:    opts.Config.Storage.ExportDir,
		Logger: opts.Logger,
	})

	return r
}

// bind wires the repositories and services that live on top of an open store.
func (r *Runner) bind(db *sql.DB) {
	r.db = db
	r.stories = repositories.NewStoryRepository(db)
	r.prompts = repositories.NewPromptRepository(db)
	r.state = repositories.NewStateRepository(db)
	r.supply = prompts.NewSupplyService(prompts.SupplyOpts{
		Catalog: r.prompts,
		State:   r.state,
		Logger:  r.logger,
	})
	r.override = prompts.NewOverride(r.state)
	r.pipeline = transcribe.NewPipeline(r.recognizer, r.stories, r.logger)
	r.engine = tasks.NewTranscribeEngine(r.recognizer, r.stories, r.logger)
}

// SetLogger swaps the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, recordCommand, storiesCommand, promptsCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireStore guards actions that need an open database.
func (r *Runner) requireStore() error {
	if r.db == nil {
		return fmt.Errorf("%w: store not initialized, run 'storychop setup' first", shared.ErrMissingConfig)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
