// Package transcribe wraps the speech-to-text capability in an async,
// cancellable pipeline that writes results back onto story records.
package transcribe

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
)

// Result is delivered to the completion callback: either Text or Err is set.
type Result struct {
	Story *models.Story
	Text  string
	Err   error
}

// Pipeline runs one transcription at a time. Callers use IsTranscribing to
// disable re-entrant requests; a concurrent Transcribe is rejected with
// [shared.ErrBusy].
type Pipeline struct {
	recognizer speech.Recognizer
	stories    *repositories.StoryRepository
	logger     *log.Logger

	mu           sync.Mutex
	transcribing bool
	cancel       context.CancelFunc
}

// NewPipeline creates an idle pipeline.
func NewPipeline(recognizer speech.Recognizer, stories *repositories.StoryRepository, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Pipeline{recognizer: recognizer, stories: stories, logger: logger}
}

// IsTranscribing reports whether a request is in flight.
func (p *Pipeline) IsTranscribing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transcribing
}

// Transcribe recognizes the story's artifact in the background and delivers
// one Result to done. On success the transcription and the transcribed flag
// are persisted together; on any failure the story is left unchanged.
//
// Preconditions are checked before any work starts: the engine must be
// available and authorized and the artifact file must exist.
func (p *Pipeline) Transcribe(ctx context.Context, story *models.Story, done func(Result)) error {
	if story.IsTranscribed {
		return fmt.Errorf("%w: story is already transcribed", shared.ErrInvalidInput)
	}

	if !p.recognizer.Available() {
		return fmt.Errorf("%w: speech engine not available", shared.ErrCapabilityUnavailable)
	}
	switch p.recognizer.Authorization() {
	case speech.AuthAuthorized:
	case speech.AuthDenied:
		return shared.ErrAuthDenied
	case speech.AuthRestricted:
		return shared.ErrAuthRestricted
	default:
		return shared.ErrAuthUndetermined
	}

	if _, err := os.Stat(story.FilePath); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrFileNotFound, story.FilePath)
	}

	p.mu.Lock()
	if p.transcribing {
		p.mu.Unlock()
		return shared.ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.transcribing = true
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.transcribing = false
			p.cancel = nil
			p.mu.Unlock()
			cancel()
		}()

		text, err := p.recognizer.Recognize(runCtx, story.FilePath)
		if err != nil {
			p.logger.Warn("transcription failed", "story", story.ID, "err", err)
			done(Result{Story: story, Err: err})
			return
		}

		if err := p.stories.SetTranscription(story.ID, text); err != nil {
			p.logger.Error("failed to persist transcription", "story", story.ID, "err", err)
			done(Result{Story: story, Err: err})
			return
		}

		story.Transcription = text
		story.IsTranscribed = true

		p.logger.Info("story transcribed", "story", story.ID, "chars", len(text))
		done(Result{Story: story, Text: text})
	}()

	return nil
}

// Cancel aborts an in-flight request. Safe to call when idle.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}
