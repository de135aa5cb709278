package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/shared"
	stesting "github.com/storychop/storychop/internal/testing"
)

func setupEngine(t *testing.T, recognizer *stesting.FakeRecognizer) (*TranscribeEngine, *repositories.StoryRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	stories := repositories.NewStoryRepository(db)
	return NewTranscribeEngine(recognizer, stories, nil), stories
}

func backlogStory(t *testing.T, stories *repositories.StoryRepository, dir, title string, withFile bool) *models.Story {
	t.Helper()

	path := filepath.Join(dir, shared.GenerateID()+".m4a")
	if withFile {
		if err := os.WriteFile(path, []byte("fake audio"), 0644); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}
	}

	story := &models.Story{Title: title, Prompt: title, Duration: 10, FilePath: path}
	if err := stories.Create(story); err != nil {
		t.Fatalf("failed to create story: %v", err)
	}
	return story
}

func TestTranscribeEngine(t *testing.T) {
	t.Run("Transcribes Whole Backlog", func(t *testing.T) {
		dir := t.TempDir()
		recognizer := &stesting.FakeRecognizer{Result: "recalled words"}
		engine, stories := setupEngine(t, recognizer)

		backlogStory(t, stories, dir, "First", true)
		backlogStory(t, stories, dir, "Second", true)
		backlogStory(t, stories, dir, "Third", true)

		result, err := engine.Run(context.Background(), nil, BulkOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if result.Total != 3 || result.Transcribed != 3 {
			t.Errorf("expected 3/3 transcribed, got %d/%d", result.Transcribed, result.Total)
		}

		remaining, err := stories.ListUntranscribed()
		if err != nil {
			t.Fatalf("failed to list backlog: %v", err)
		}
		if len(remaining) != 0 {
			t.Errorf("backlog should be empty, %d stories remain", len(remaining))
		}
	})

	t.Run("Skips Missing Artifacts", func(t *testing.T) {
		dir := t.TempDir()
		recognizer := &stesting.FakeRecognizer{Result: "recalled words"}
		engine, stories := setupEngine(t, recognizer)

		backlogStory(t, stories, dir, "Kept", true)
		lost := backlogStory(t, stories, dir, "Lost", false)

		result, err := engine.Run(context.Background(), nil, BulkOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if result.Transcribed != 1 || result.Skipped != 1 || result.Failed != 0 {
			t.Errorf("expected 1 transcribed and 1 skipped, got %+v", result)
		}

		remaining, err := stories.ListUntranscribed()
		if err != nil {
			t.Fatalf("failed to list backlog: %v", err)
		}
		if len(remaining) != 1 || remaining[0].ID != lost.ID {
			t.Error("the skipped story should stay in the backlog")
		}

		for _, path := range recognizer.Calls {
			if path == lost.FilePath {
				t.Error("engine should not be invoked for a missing artifact")
			}
		}
	})

	t.Run("Engine Failure Recorded Run Continues", func(t *testing.T) {
		dir := t.TempDir()
		recognizer := &stesting.FakeRecognizer{Err: errors.New("model crashed")}
		engine, stories := setupEngine(t, recognizer)

		backlogStory(t, stories, dir, "First", true)
		backlogStory(t, stories, dir, "Second", true)

		result, err := engine.Run(context.Background(), nil, BulkOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if result.Failed != 2 || result.Transcribed != 0 {
			t.Errorf("expected both failures recorded, got %+v", result)
		}
	})

	t.Run("Empty Backlog", func(t *testing.T) {
		recognizer := &stesting.FakeRecognizer{Result: "unused"}
		engine, _ := setupEngine(t, recognizer)

		result, err := engine.Run(context.Background(), nil, BulkOpts{})
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if result.Total != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
		if len(recognizer.Calls) != 0 {
			t.Error("engine should not be invoked with nothing to do")
		}
	})

	t.Run("Unavailable Engine Rejected Upfront", func(t *testing.T) {
		recognizer := &stesting.FakeRecognizer{Unavailable: true}
		engine, _ := setupEngine(t, recognizer)

		_, err := engine.Run(context.Background(), nil, BulkOpts{})
		if !errors.Is(err, shared.ErrCapabilityUnavailable) {
			t.Errorf("expected ErrCapabilityUnavailable, got %v", err)
		}
	})

	t.Run("Progress Updates Reach Listener", func(t *testing.T) {
		dir := t.TempDir()
		recognizer := &stesting.FakeRecognizer{Result: "recalled words"}
		engine, stories := setupEngine(t, recognizer)

		backlogStory(t, stories, dir, "First", true)
		backlogStory(t, stories, dir, "Second", true)

		prog := make(chan ProgressUpdate, 32)
		if _, err := engine.Run(context.Background(), prog, BulkOpts{RateLimit: 1000}); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		close(prog)

		var sawFetch, sawDone bool
		steps := 0
		for update := range prog {
			switch update.Phase {
			case FetchBacklog:
				sawFetch = true
			case Transcribe:
				steps++
				if update.Total != 2 {
					t.Errorf("transcribe updates should carry the backlog size, got %d", update.Total)
				}
			case Done:
				sawDone = true
			}
		}

		if !sawFetch || !sawDone || steps != 2 {
			t.Errorf("expected fetch, 2 steps, done; got fetch=%v steps=%d done=%v", sawFetch, steps, sawDone)
		}
	})

	t.Run("Cancelled Context Halts Run", func(t *testing.T) {
		dir := t.TempDir()
		gate := make(chan struct{})
		recognizer := &stesting.FakeRecognizer{Result: "recalled words", Delay: gate}
		engine, stories := setupEngine(t, recognizer)

		for i := 0; i < 4; i++ {
			backlogStory(t, stories, dir, "Story", true)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		var result *BulkResult
		var runErr error
		go func() {
			result, runErr = engine.Run(ctx, nil, BulkOpts{NumWorkers: 1, RateLimit: 1000})
			close(done)
		}()

		cancel()
		close(gate)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("run did not stop after cancellation")
		}

		if !errors.Is(runErr, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", runErr)
		}
		if result == nil || result.Transcribed == result.Total {
			t.Error("a cancelled run should leave part of the backlog untouched")
		}
	})
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		FetchBacklog: "fetch_backlog",
		Transcribe:   "transcribe",
		Done:         "done",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
