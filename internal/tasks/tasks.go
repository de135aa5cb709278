package tasks

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
	"github.com/storychop/storychop/internal/speech"
	"golang.org/x/time/rate"
)

// Phase enumerates bulk-operation phases.
type Phase int

const (
	FetchBacklog Phase = iota
	Transcribe
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchBacklog:
		return "fetch_backlog"
	case Transcribe:
		return "transcribe"
	case Done:
		return "done"
	default:
		return ""
	}
}

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// StoryResult is the outcome for one story in a bulk run.
type StoryResult struct {
	Story *models.Story
	Text  string
	Err   error
}

// BulkResult summarizes a bulk transcription run.
type BulkResult struct {
	Total       int
	Transcribed int
	Skipped     int // artifact missing on disk
	Failed      int
	Results     []StoryResult
}

// TranscribeEngine runs bulk transcription over the story backlog.
type TranscribeEngine struct {
	recognizer speech.Recognizer
	stories    *repositories.StoryRepository
	logger     *log.Logger
}

// NewTranscribeEngine creates an engine over the given recognizer and store.
func NewTranscribeEngine(recognizer speech.Recognizer, stories *repositories.StoryRepository, logger *log.Logger) *TranscribeEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TranscribeEngine{recognizer: recognizer, stories: stories, logger: logger}
}

// BulkOpts contains configuration for bulk transcription runs.
type BulkOpts struct {
	NumWorkers int     // Concurrent workers (default: 2)
	RateLimit  float64 // Recognitions per second (default: 1)
}

// Run transcribes every untranscribed story, respecting the rate limit and
// reporting per-story progress on prog. Stories whose artifact is missing
// are skipped, not failed; any other per-story error is recorded and the run
// continues. Cancelling ctx drains the pool and returns what finished.
func (e *TranscribeEngine) Run(ctx context.Context, prog chan<- ProgressUpdate, opts BulkOpts) (*BulkResult, error) {
	if e.recognizer == nil {
		return nil, fmt.Errorf("%w: recognizer not initialized", shared.ErrCapabilityUnavailable)
	}
	if !e.recognizer.Available() {
		return nil, fmt.Errorf("%w: speech engine not available", shared.ErrCapabilityUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 4 {
		opts.NumWorkers = 4
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	e.sendProgress(prog, ProgressUpdate{Phase: FetchBacklog, Message: "Fetching untranscribed stories..."})

	backlog, err := e.stories.ListUntranscribed()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch backlog: %w", err)
	}

	result := &BulkResult{Total: len(backlog), Results: make([]StoryResult, 0, len(backlog))}
	if len(backlog) == 0 {
		e.sendProgress(prog, ProgressUpdate{Phase: Done, Message: "Nothing to transcribe"})
		return result, nil
	}

	e.logger.Info("bulk transcription started", "backlog", len(backlog), "workers", opts.NumWorkers, "rate", opts.RateLimit)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan *models.Story, len(backlog))
	results := make(chan StoryResult, len(backlog))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.worker(ctx, &wg, limiter, jobs, results)
	}

	for _, story := range backlog {
		jobs <- story
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	step := 0
	for r := range results {
		step++
		result.Results = append(result.Results, r)

		switch {
		case r.Err == nil && r.Text != "":
			result.Transcribed++
			e.sendProgress(prog, ProgressUpdate{
				Phase: Transcribe, Step: step, Total: len(backlog),
				Message: fmt.Sprintf("Transcribed %q", r.Story.Title),
			})
		case r.Err == nil:
			result.Skipped++
			e.sendProgress(prog, ProgressUpdate{
				Phase: Transcribe, Step: step, Total: len(backlog),
				Message: fmt.Sprintf("Skipped %q (file missing)", r.Story.Title),
			})
		default:
			result.Failed++
			e.sendProgress(prog, ProgressUpdate{
				Phase: Transcribe, Step: step, Total: len(backlog),
				Message: fmt.Sprintf("Failed %q: %v", r.Story.Title, r.Err),
			})
		}
	}

	e.sendProgress(prog, ProgressUpdate{
		Phase: Done, Step: result.Total, Total: result.Total,
		Message: fmt.Sprintf("Transcribed %d, skipped %d, failed %d", result.Transcribed, result.Skipped, result.Failed),
	})

	return result, ctx.Err()
}

// worker consumes jobs until the channel closes or ctx ends.
func (e *TranscribeEngine) worker(ctx context.Context, wg *sync.WaitGroup, limiter *rate.Limiter, jobs <-chan *models.Story, results chan<- StoryResult) {
	defer wg.Done()

	for story := range jobs {
		if ctx.Err() != nil {
			return
		}

		if _, err := os.Stat(story.FilePath); err != nil {
			// Missing artifact: skip, the story stays in the backlog.
			results <- StoryResult{Story: story}
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		text, err := e.recognizer.Recognize(ctx, story.FilePath)
		if err != nil {
			results <- StoryResult{Story: story, Err: err}
			continue
		}

		if err := e.stories.SetTranscription(story.ID, text); err != nil {
			results <- StoryResult{Story: story, Err: err}
			continue
		}

		results <- StoryResult{Story: story, Text: text}
	}
}

// sendProgress delivers an update without ever blocking the run.
func (e *TranscribeEngine) sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
