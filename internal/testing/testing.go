// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/speech"
)

// FakeCapture is a test double for [audio.Capture]. It writes a small stub
// artifact on Open so file-existence checks downstream pass.
type FakeCapture struct {
	OpenErr  error
	StartErr error
	StopErr  error

	mu       sync.Mutex
	Sessions []*FakeCaptureSession
}

func (c *FakeCapture) Open(dest string, cfg audio.EncodingConfig) (audio.CaptureSession, error) {
	if c.OpenErr != nil {
		return nil, c.OpenErr
	}
	if err := os.WriteFile(dest, []byte("fake audio"), 0644); err != nil {
		return nil, err
	}

	session := &FakeCaptureSession{Dest: dest, StartErr: c.StartErr, StopErr: c.StopErr}
	c.mu.Lock()
	c.Sessions = append(c.Sessions, session)
	c.mu.Unlock()
	return session, nil
}

// FakeCaptureSession records the lifecycle calls made against it.
type FakeCaptureSession struct {
	Dest     string
	StartErr error
	StopErr  error

	mu      sync.Mutex
	Started int
	Pauses  int
	Stopped bool
	Aborted bool
}

func (s *FakeCaptureSession) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	s.Started++
	return nil
}

func (s *FakeCaptureSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pauses++
	return nil
}

func (s *FakeCaptureSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StopErr != nil {
		return s.StopErr
	}
	s.Stopped = true
	return nil
}

func (s *FakeCaptureSession) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Aborted = true
	return nil
}

// FakePlayback is a test double for [audio.Playback]. The position advances
// only when the test calls Advance on the handle.
type FakePlayback struct {
	LoadErr error

	mu      sync.Mutex
	Handles []*FakePlaybackHandle
}

func (p *FakePlayback) Load(path string) (audio.PlaybackHandle, error) {
	if p.LoadErr != nil {
		return nil, p.LoadErr
	}

	handle := &FakePlaybackHandle{Path: path, done: make(chan bool, 1)}
	p.mu.Lock()
	p.Handles = append(p.Handles, handle)
	p.mu.Unlock()
	return handle, nil
}

// FakePlaybackHandle is a hand-cranked playback handle.
type FakePlaybackHandle struct {
	Path    string
	PlayErr error

	mu       sync.Mutex
	pos      float64
	Playing  bool
	Stops    int
	Closed   bool
	done     chan bool
	finished bool
}

func (h *FakePlaybackHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PlayErr != nil {
		return h.PlayErr
	}
	h.Playing = true
	return nil
}

func (h *FakePlaybackHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Playing = false
	return nil
}

func (h *FakePlaybackHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Playing = false
	h.Stops++
	h.pos = 0
	return nil
}

func (h *FakePlaybackHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

func (h *FakePlaybackHandle) Done() <-chan bool {
	return h.done
}

func (h *FakePlaybackHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Closed = true
	return nil
}

// Advance moves the cursor to pos seconds.
func (h *FakePlaybackHandle) Advance(pos float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = pos
}

// Finish signals capability-reported completion.
func (h *FakePlaybackHandle) Finish(success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	h.finished = true
	h.done <- success
	close(h.done)
}

// FakeRecognizer is a test double for [speech.Recognizer].
type FakeRecognizer struct {
	Unavailable bool
	Auth        speech.AuthStatus
	Result      string
	Err         error
	Delay       chan struct{} // when set, Recognize blocks until closed or ctx ends

	mu    sync.Mutex
	Calls []string
}

func (r *FakeRecognizer) Available() bool {
	return !r.Unavailable
}

func (r *FakeRecognizer) Authorization() speech.AuthStatus {
	return r.Auth
}

func (r *FakeRecognizer) Recognize(ctx context.Context, path string) (string, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, path)
	r.mu.Unlock()

	if r.Delay != nil {
		select {
		case <-r.Delay:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if r.Err != nil {
		return "", r.Err
	}
	return r.Result, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
