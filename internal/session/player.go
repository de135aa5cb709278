package session

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

// DefaultPollInterval is how often the playback cursor is republished.
const DefaultPollInterval = 100 * time.Millisecond

// PlayerState enumerates the playback controller states.
type PlayerState int

const (
	PlayerStopped PlayerState = iota
	PlayerPlaying
	PlayerPaused
	PlayerCompleted
	// PlayerUnavailable is terminal: the artifact file is gone and every
	// playback action reports a file-not-found condition.
	PlayerUnavailable
)

func (s PlayerState) String() string {
	switch s {
	case PlayerStopped:
		return "stopped"
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	case PlayerCompleted:
		return "completed"
	case PlayerUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Player drives playback of one persisted story with a live position cursor.
// It is bound to its story for its whole lifetime; Close must be called when
// the owning view goes away.
type Player struct {
	mu sync.Mutex

	story    *models.Story
	playback audio.Playback
	logger   *log.Logger
	interval time.Duration

	state    PlayerState
	handle   audio.PlaybackHandle
	cursor   float64
	updates  chan float64
	stopPoll chan struct{}
	closed   bool
}

// PlayerOpts contains dependencies for a playback session.
type PlayerOpts struct {
	Story    *models.Story
	Playback audio.Playback
	Logger   *log.Logger
	Interval time.Duration // cursor poll interval, DefaultPollInterval unless overridden
}

// NewPlayer creates a stopped player bound to one story.
func NewPlayer(opts PlayerOpts) *Player {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}

	return &Player{
		story:    opts.Story,
		playback: opts.Playback,
		logger:   opts.Logger,
		interval: opts.Interval,
		state:    PlayerStopped,
		updates:  make(chan float64, 16),
	}
}

// Setup validates that the artifact file still exists. A missing file puts
// the player into the terminal unavailable state instead of crashing later.
func (p *Player) Setup() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := os.Stat(p.story.FilePath); err != nil {
		p.state = PlayerUnavailable
		p.logger.Warn("artifact missing, playback unavailable", "path", p.story.FilePath)
		return fmt.Errorf("%w: %s", shared.ErrFileNotFound, p.story.FilePath)
	}
	return nil
}

// State reports the current player state.
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position reports the current cursor in seconds, always within
// [0, story.Duration].
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Updates delivers the cursor roughly every poll interval while playing.
// Slow consumers miss updates rather than stall playback.
func (p *Player) Updates() <-chan float64 {
	return p.updates
}

// Play starts or resumes reproduction and the position poll.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case PlayerUnavailable:
		return fmt.Errorf("%w: %s", shared.ErrFileNotFound, p.story.FilePath)
	case PlayerPlaying:
		return nil
	case PlayerStopped, PlayerPaused, PlayerCompleted:
	default:
		return fmt.Errorf("%w: cannot play from %s", shared.ErrInvalidState, p.state)
	}

	if p.closed {
		return fmt.Errorf("%w: player is closed", shared.ErrInvalidState)
	}

	if p.handle == nil {
		handle, err := p.playback.Load(p.story.FilePath)
		if err != nil {
			return fmt.Errorf("failed to load artifact: %w", err)
		}
		p.handle = handle
		p.cursor = 0
	}

	if err := p.handle.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	p.state = PlayerPlaying
	p.stopPoll = make(chan struct{})
	go p.poll(p.handle, p.stopPoll)

	p.logger.Debug("playback started", "story", p.story.ID, "cursor", p.cursor)
	return nil
}

// Pause freezes the cursor without resetting it.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PlayerUnavailable {
		return fmt.Errorf("%w: %s", shared.ErrFileNotFound, p.story.FilePath)
	}
	if p.state != PlayerPlaying {
		return nil
	}

	p.haltPoll()
	if err := p.handle.Pause(); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	p.state = PlayerPaused
	return nil
}

// Stop halts reproduction, resets the cursor, and releases the capability
// handle. The player remains usable; Play starts over from zero.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == PlayerUnavailable {
		return fmt.Errorf("%w: %s", shared.ErrFileNotFound, p.story.FilePath)
	}

	p.haltPoll()
	p.releaseHandle()
	p.cursor = 0
	p.state = PlayerStopped
	return nil
}

// Close tears the player down: poll stopped, capability released. Safe to
// call more than once.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	p.haltPoll()
	p.releaseHandle()
	if p.state != PlayerUnavailable {
		p.state = PlayerStopped
	}
	return nil
}

// haltPoll stops the cursor poll. Callers hold p.mu.
func (p *Player) haltPoll() {
	if p.stopPoll != nil {
		close(p.stopPoll)
		p.stopPoll = nil
	}
}

// releaseHandle closes and forgets the capability handle. Callers hold p.mu.
func (p *Player) releaseHandle() {
	if p.handle != nil {
		p.handle.Close()
		p.handle = nil
	}
}

// complete transitions to completed, rewinds the cursor, and drops the
// handle so the next Play starts a fresh reproduction. Callers hold p.mu.
func (p *Player) complete() {
	p.haltPoll()
	p.releaseHandle()
	p.cursor = 0
	p.state = PlayerCompleted
	p.logger.Debug("playback completed", "story", p.story.ID)
}

// poll republishes the cursor and watches for completion. It owns no state;
// every mutation happens under p.mu.
func (p *Player) poll(handle audio.PlaybackHandle, stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	duration := float64(p.story.Duration)

	for {
		select {
		case <-stop:
			return
		case <-handle.Done():
			p.mu.Lock()
			if p.state == PlayerPlaying && p.handle == handle {
				p.complete()
			}
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.state != PlayerPlaying || p.handle != handle {
				p.mu.Unlock()
				return
			}

			pos := handle.Position()
			// The cursor never runs backwards within a segment and never
			// leaves [0, duration].
			if pos < p.cursor {
				pos = p.cursor
			}
			if pos < 0 {
				pos = 0
			}

			if duration > 0 && pos >= duration {
				p.cursor = duration
				cursor := p.cursor
				p.complete()
				p.mu.Unlock()

				select {
				case p.updates <- cursor:
				default:
				}
				return
			}

			p.cursor = pos
			cursor := p.cursor
			p.mu.Unlock()

			select {
			case p.updates <- cursor:
			default:
			}
		}
	}
}
