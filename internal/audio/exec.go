package audio

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/storychop/storychop/internal/shared"
)

// ExecCapture shells out to a recorder command (ffmpeg by default) for each
// capture session. The command template carries {dest}, {rate} and {channels}
// placeholders.
type ExecCapture struct {
	Command string
}

// NewExecCapture creates a capture capability backed by the given command template.
func NewExecCapture(command string) *ExecCapture {
	return &ExecCapture{Command: command}
}

// Open verifies the recorder binary exists and allocates a session. The
// subprocess is not spawned until Start.
func (c *ExecCapture) Open(dest string, cfg EncodingConfig) (CaptureSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoding config: %w", err)
	}

	args := splitCommand(c.Command, map[string]string{
		"{dest}":     dest,
		"{rate}":     strconv.Itoa(cfg.SampleRate),
		"{channels}": strconv.Itoa(cfg.Channels),
	})
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no record command configured", shared.ErrCapabilityUnavailable)
	}

	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("%w: recorder %q not found: %v", shared.ErrCapabilityUnavailable, args[0], err)
	}

	return &execCaptureSession{args: args}, nil
}

type execCaptureSession struct {
	mu     sync.Mutex
	args   []string
	cmd    *exec.Cmd
	paused bool
	done   bool
}

func (s *execCaptureSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return fmt.Errorf("capture session already finalized")
	}

	if s.cmd != nil {
		if !s.paused {
			return nil
		}
		// Resume a paused recorder process.
		if err := s.cmd.Process.Signal(syscall.SIGCONT); err != nil {
			return fmt.Errorf("failed to resume recorder: %w", err)
		}
		s.paused = false
		return nil
	}

	cmd := exec.Command(s.args[0], s.args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start recorder: %v", shared.ErrCapabilityUnavailable, err)
	}
	s.cmd = cmd
	return nil
}

func (s *execCaptureSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.paused || s.done {
		return nil
	}
	if err := s.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return fmt.Errorf("failed to pause recorder: %w", err)
	}
	s.paused = true
	return nil
}

func (s *execCaptureSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.done {
		s.done = true
		return nil
	}
	s.done = true

	if s.paused {
		s.cmd.Process.Signal(syscall.SIGCONT)
	}

	// ffmpeg finalizes the container on SIGINT.
	if err := s.cmd.Process.Signal(syscall.SIGINT); err != nil {
		return fmt.Errorf("failed to stop recorder: %w", err)
	}

	if err := s.waitWithTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("recorder did not finalize: %w", err)
	}
	return nil
}

func (s *execCaptureSession) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.done {
		s.done = true
		return nil
	}
	s.done = true

	if s.paused {
		s.cmd.Process.Signal(syscall.SIGCONT)
	}
	s.cmd.Process.Kill()
	s.cmd.Wait()
	return nil
}

// waitWithTimeout waits for the subprocess, killing it if it hangs past d.
func (s *execCaptureSession) waitWithTimeout(d time.Duration) error {
	waited := make(chan error, 1)
	go func() { waited <- s.cmd.Wait() }()

	select {
	case err := <-waited:
		// SIGINT exits are expected; treat a clean wait or interrupt as success.
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() != -1 {
				return nil
			}
		}
		return nil
	case <-time.After(d):
		s.cmd.Process.Kill()
		<-waited
		return fmt.Errorf("timed out after %s", d)
	}
}

// ExecPlayback shells out to a player command (ffplay by default) for each
// loaded artifact. The command template carries a {src} placeholder.
//
// The player process owns the audio device, so the position cursor is tracked
// with a wall-clock stopwatch that freezes while paused.
type ExecPlayback struct {
	Command string
}

// NewExecPlayback creates a playback capability backed by the given command template.
func NewExecPlayback(command string) *ExecPlayback {
	return &ExecPlayback{Command: command}
}

// Load verifies the player binary exists and returns an idle handle.
func (p *ExecPlayback) Load(path string) (PlaybackHandle, error) {
	args := splitCommand(p.Command, map[string]string{"{src}": path})
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no play command configured", shared.ErrCapabilityUnavailable)
	}

	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("%w: player %q not found: %v", shared.ErrCapabilityUnavailable, args[0], err)
	}

	return &execPlaybackHandle{args: args, done: make(chan bool, 1)}, nil
}

type execPlaybackHandle struct {
	mu      sync.Mutex
	args    []string
	cmd      *exec.Cmd
	done     chan bool
	playing  bool
	finished bool
	elapsed  time.Duration
	started  time.Time
	closed   bool
}

func (h *execPlaybackHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("playback handle is closed")
	}
	if h.playing {
		return nil
	}

	if h.cmd == nil {
		cmd := exec.Command(h.args[0], h.args[1:]...)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("%w: failed to start player: %v", shared.ErrCapabilityUnavailable, err)
		}
		h.cmd = cmd
		h.elapsed = 0

		go func() {
			err := cmd.Wait()
			h.mu.Lock()
			h.playing = false
			finished := h.finished
			h.finished = true
			h.mu.Unlock()
			if finished {
				return
			}
			select {
			case h.done <- err == nil:
			default:
			}
			close(h.done)
		}()
	} else {
		if err := h.cmd.Process.Signal(syscall.SIGCONT); err != nil {
			return fmt.Errorf("failed to resume player: %w", err)
		}
	}

	h.started = time.Now()
	h.playing = true
	return nil
}

func (h *execPlaybackHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil || !h.playing {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return fmt.Errorf("failed to pause player: %w", err)
	}
	h.elapsed += time.Since(h.started)
	h.playing = false
	return nil
}

func (h *execPlaybackHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd != nil {
		h.cmd.Process.Kill()
		h.cmd = nil
	}
	h.playing = false
	h.elapsed = 0
	return nil
}

func (h *execPlaybackHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	elapsed := h.elapsed
	if h.playing {
		elapsed += time.Since(h.started)
	}
	return elapsed.Seconds()
}

func (h *execPlaybackHandle) Done() <-chan bool {
	return h.done
}

func (h *execPlaybackHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	if h.cmd != nil {
		h.cmd.Process.Kill()
		h.cmd = nil
	}
	h.playing = false
	return nil
}

// splitCommand expands placeholders and splits a command template into argv.
func splitCommand(template string, placeholders map[string]string) []string {
	expanded := template
	for key, value := range placeholders {
		expanded = strings.ReplaceAll(expanded, key, value)
	}
	return strings.Fields(expanded)
}
