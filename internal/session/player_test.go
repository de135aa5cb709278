package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
	stesting "github.com/storychop/storychop/internal/testing"
)

func newTestPlayer(t *testing.T, playback *stesting.FakePlayback, duration int) (*Player, *models.Story) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "story.m4a")
	if err := os.WriteFile(path, []byte("fake audio"), 0644); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}

	story := &models.Story{
		ID:       shared.GenerateID(),
		Title:    "test story",
		Prompt:   "test prompt",
		Duration: duration,
		FilePath: path,
	}

	player := NewPlayer(PlayerOpts{
		Story:    story,
		Playback: playback,
		Interval: 5 * time.Millisecond,
	})
	t.Cleanup(func() { player.Close() })
	return player, story
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestPlayer(t *testing.T) {
	t.Run("Setup Missing File", func(t *testing.T) {
		playback := &stesting.FakePlayback{}
		player, story := newTestPlayer(t, playback, 10)
		os.Remove(story.FilePath)

		err := player.Setup()
		if !errors.Is(err, shared.ErrFileNotFound) {
			t.Fatalf("expected ErrFileNotFound, got %v", err)
		}
		if player.State() != PlayerUnavailable {
			t.Errorf("expected unavailable state, got %s", player.State())
		}

		// Every action reports the condition instead of crashing.
		if err := player.Play(); !errors.Is(err, shared.ErrFileNotFound) {
			t.Errorf("play on unavailable player should report file not found, got %v", err)
		}
		if err := player.Stop(); !errors.Is(err, shared.ErrFileNotFound) {
			t.Errorf("stop on unavailable player should report file not found, got %v", err)
		}
		if len(playback.Handles) != 0 {
			t.Error("unavailable player must not load the capability")
		}
	})

	t.Run("Play Pause Resume", func(t *testing.T) {
		playback := &stesting.FakePlayback{}
		player, _ := newTestPlayer(t, playback, 10)

		if err := player.Setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := player.Play(); err != nil {
			t.Fatalf("play failed: %v", err)
		}
		if player.State() != PlayerPlaying {
			t.Fatalf("expected playing, got %s", player.State())
		}

		handle := playback.Handles[0]
		handle.Advance(3.5)

		if !waitFor(t, time.Second, func() bool { return player.Position() >= 3.5 }) {
			t.Fatalf("cursor should follow the capability, got %f", player.Position())
		}

		if err := player.Pause(); err != nil {
			t.Fatalf("pause failed: %v", err)
		}
		if player.State() != PlayerPaused {
			t.Errorf("expected paused, got %s", player.State())
		}
		if player.Position() < 3.5 {
			t.Errorf("pause must keep the cursor, got %f", player.Position())
		}

		if err := player.Play(); err != nil {
			t.Fatalf("resume failed: %v", err)
		}
		if len(playback.Handles) != 1 {
			t.Errorf("resume should reuse the loaded handle, got %d loads", len(playback.Handles))
		}
	})

	t.Run("Cursor Clamped And Completes At Duration", func(t *testing.T) {
		playback := &stesting.FakePlayback{}
		player, _ := newTestPlayer(t, playback, 10)

		if err := player.Setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := player.Play(); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		// Capability reports past the end; the published cursor must not.
		playback.Handles[0].Advance(12.7)

		var last float64
		timeout := time.After(time.Second)
		for done := false; !done; {
			select {
			case pos := <-player.Updates():
				last = pos
				if pos > 10 {
					t.Fatalf("cursor exceeded duration: %f", pos)
				}
				if player.State() == PlayerCompleted {
					done = true
				}
			case <-timeout:
				t.Fatal("player never completed")
			}
		}

		if last != 10 {
			t.Errorf("final update should be the full duration, got %f", last)
		}
		if player.Position() != 0 {
			t.Errorf("completion should rewind the cursor, got %f", player.Position())
		}

		// Immediately replayable with a fresh handle.
		if err := player.Play(); err != nil {
			t.Fatalf("replay failed: %v", err)
		}
		if len(playback.Handles) != 2 {
			t.Errorf("replay should load a fresh handle, got %d loads", len(playback.Handles))
		}
	})

	t.Run("Capability Completion", func(t *testing.T) {
		playback := &stesting.FakePlayback{}
		player, _ := newTestPlayer(t, playback, 10)

		if err := player.Setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := player.Play(); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		playback.Handles[0].Finish(true)

		if !waitFor(t, time.Second, func() bool { return player.State() == PlayerCompleted }) {
			t.Fatalf("expected completed state, got %s", player.State())
		}
		if player.Position() != 0 {
			t.Errorf("completion should rewind the cursor, got %f", player.Position())
		}
	})

	t.Run("Stop Resets And Releases", func(t *testing.T) {
		playback := &stesting.FakePlayback{}
		player, _ := newTestPlayer(t, playback, 10)

		if err := player.Setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := player.Play(); err != nil {
			t.Fatalf("play failed: %v", err)
		}
		playback.Handles[0].Advance(4)

		if err := player.Stop(); err != nil {
			t.Fatalf("stop failed: %v", err)
		}
		if player.State() != PlayerStopped {
			t.Errorf("expected stopped, got %s", player.State())
		}
		if player.Position() != 0 {
			t.Errorf("stop should rewind the cursor, got %f", player.Position())
		}
		if !waitFor(t, time.Second, func() bool { return playback.Handles[0].Closed }) {
			t.Error("stop should release the capability handle")
		}
	})

	t.Run("Close Is Idempotent", func(t *testing.T) {
		playback := &stesting.FakePlayback{}
		player, _ := newTestPlayer(t, playback, 10)

		if err := player.Setup(); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := player.Play(); err != nil {
			t.Fatalf("play failed: %v", err)
		}

		if err := player.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if err := player.Close(); err != nil {
			t.Fatalf("second close failed: %v", err)
		}
		if err := player.Play(); err == nil {
			t.Error("play after close should fail")
		}
	})
}
