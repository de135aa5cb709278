package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
)

// MinSaveSeconds is the shortest recording that can be saved. Anything
// shorter is treated as an accidental tap.
const MinSaveSeconds = 5

// RecorderState enumerates the recording session states.
type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
	RecorderStopped
	RecorderSaved
	RecorderCancelled
)

func (s RecorderState) String() string {
	switch s {
	case RecorderIdle:
		return "idle"
	case RecorderRecording:
		return "recording"
	case RecorderStopped:
		return "stopped"
	case RecorderSaved:
		return "saved"
	case RecorderCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Recorder drives one recording session from prompt to persisted story.
type Recorder struct {
	mu sync.Mutex

	capture  audio.Capture
	stories  *repositories.StoryRepository
	dir      string
	encoding audio.EncodingConfig
	logger   *log.Logger
	interval time.Duration

	state     RecorderState
	prompt    string
	dest      string
	session   audio.CaptureSession
	paused    bool
	finalized bool
	elapsed   int
	ticks     chan int
	stopTick  chan struct{}
}

// RecorderOpts contains dependencies for a recording session.
type RecorderOpts struct {
	Capture  audio.Capture
	Stories  *repositories.StoryRepository
	Dir      string                // private storage area for artifacts
	Encoding audio.EncodingConfig  // zero value falls back to DefaultEncoding
	Logger   *log.Logger
	Interval time.Duration // tick interval, 1s unless overridden in tests
}

// NewRecorder creates an idle recording session.
func NewRecorder(opts RecorderOpts) *Recorder {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Encoding == (audio.EncodingConfig{}) {
		opts.Encoding = audio.DefaultEncoding()
	}

	return &Recorder{
		capture:  opts.Capture,
		stories:  opts.Stories,
		dir:      opts.Dir,
		encoding: opts.Encoding,
		logger:   opts.Logger,
		interval: opts.Interval,
		state:    RecorderIdle,
		ticks:    make(chan int, 8),
	}
}

// State reports the current session state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed reports the recorded seconds so far. The counter freezes while
// capture is paused.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Ticks delivers the elapsed counter once per tick while capture is active.
// Slow consumers miss ticks rather than stall the counter.
func (r *Recorder) Ticks() <-chan int {
	return r.ticks
}

// Prompt reports the prompt this session is bound to.
func (r *Recorder) Prompt() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prompt
}

// Start allocates a fresh artifact location, opens the capture capability
// against it, and starts the elapsed counter. Valid only from idle; a
// capability failure reports an error and leaves the session idle.
func (r *Recorder) Start(prompt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderIdle {
		return fmt.Errorf("%w: cannot start from %s", shared.ErrInvalidState, r.state)
	}
	if prompt == "" {
		return fmt.Errorf("%w: prompt is required", shared.ErrInvalidInput)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create recordings directory: %w", err)
	}

	dest := filepath.Join(r.dir, fmt.Sprintf("recording_%s.%s", shared.GenerateID(), r.encoding.Extension))

	session, err := r.capture.Open(dest, r.encoding)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	if err := session.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	r.prompt = prompt
	r.dest = dest
	r.session = session
	r.state = RecorderRecording
	r.paused = false
	r.elapsed = 0
	r.stopTick = make(chan struct{})

	go r.tick(r.stopTick)

	r.logger.Info("recording started", "prompt", prompt, "dest", dest)
	return nil
}

// Toggle flips between active and paused capture. While paused the elapsed
// counter is frozen and the artifact is not finalized.
func (r *Recorder) Toggle() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording {
		return fmt.Errorf("%w: cannot toggle from %s", shared.ErrInvalidState, r.state)
	}

	if r.paused {
		if err := r.session.Start(); err != nil {
			return fmt.Errorf("failed to resume capture: %w", err)
		}
		r.paused = false
		r.logger.Debug("recording resumed", "elapsed", r.elapsed)
		return nil
	}

	if err := r.session.Pause(); err != nil {
		return fmt.Errorf("failed to pause capture: %w", err)
	}
	r.paused = true
	r.logger.Debug("recording paused", "elapsed", r.elapsed)
	return nil
}

// Save finalizes capture and persists the story. Recordings shorter than
// [MinSaveSeconds] are rejected without creating anything. When finalization
// or insertion fails the session stays stopped and Save can be retried.
func (r *Recorder) Save() (*models.Story, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording && r.state != RecorderStopped {
		return nil, fmt.Errorf("%w: cannot save from %s", shared.ErrInvalidState, r.state)
	}

	if r.elapsed < MinSaveSeconds {
		return nil, fmt.Errorf("%w: %ds recorded, need %ds", shared.ErrRecordingTooShort, r.elapsed, MinSaveSeconds)
	}

	// The counter never outlives active capture.
	r.haltTicker()
	r.state = RecorderStopped

	if !r.finalized {
		if err := r.session.Stop(); err != nil {
			r.logger.Error("capture finalization failed", "err", err)
			return nil, fmt.Errorf("failed to finalize capture: %w", err)
		}
		r.finalized = true
	}

	story := &models.Story{
		Title:    r.prompt,
		Date:     time.Now(),
		Prompt:   r.prompt,
		Duration: r.elapsed,
		FilePath: r.dest,
	}

	if err := r.stories.Create(story); err != nil {
		r.logger.Error("story insert failed", "err", err)
		return nil, fmt.Errorf("failed to persist story: %w", err)
	}

	r.state = RecorderSaved
	r.logger.Info("story saved", "id", story.ID, "duration", story.Duration)
	return story, nil
}

// Cancel stops capture and discards the in-progress artifact. Valid from
// recording or stopped; calling it when there is nothing to cancel is a no-op.
func (r *Recorder) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RecorderRecording && r.state != RecorderStopped {
		return nil
	}

	r.haltTicker()

	if r.session != nil && !r.finalized {
		r.session.Abort()
	}

	// Best-effort artifact deletion.
	if r.dest != "" {
		if err := os.Remove(r.dest); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to delete discarded artifact", "dest", r.dest, "err", err)
		}
	}

	r.state = RecorderCancelled
	r.logger.Info("recording cancelled", "elapsed", r.elapsed)
	return nil
}

// haltTicker stops the elapsed counter. Callers hold r.mu.
func (r *Recorder) haltTicker() {
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
}

// tick owns the elapsed counter for one recording run.
func (r *Recorder) tick(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.state != RecorderRecording || r.paused {
				r.mu.Unlock()
				continue
			}
			r.elapsed++
			elapsed := r.elapsed
			r.mu.Unlock()

			select {
			case r.ticks <- elapsed:
			default:
			}
		}
	}
}
