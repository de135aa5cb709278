package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

func exportStory(t *testing.T, dir, title string, withFile bool) *models.Story {
	t.Helper()

	path := filepath.Join(dir, shared.GenerateID()+".m4a")
	if withFile {
		if err := os.WriteFile(path, []byte("fake audio"), 0644); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}
	}

	return &models.Story{
		ID:       shared.GenerateID(),
		Title:    title,
		Date:     time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		Prompt:   "prompt for " + title,
		Duration: 12,
		FilePath: path,
	}
}

func readArchive(t *testing.T, archive string) map[string][]byte {
	t.Helper()

	r, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer r.Close()

	files := map[string][]byte{}
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		var buf []byte
		chunk := make([]byte, 4096)
		for {
			n, err := rc.Read(chunk)
			buf = append(buf, chunk[:n]...)
			if err != nil {
				break
			}
		}
		rc.Close()
		files[f.Name] = buf
	}
	return files
}

func TestBundler(t *testing.T) {
	t.Run("ExportAll Lists All Copies Existing", func(t *testing.T) {
		audioDir := t.TempDir()
		bundler := NewBundler(BundlerOpts{Dir: t.TempDir()})

		stories := []*models.Story{
			exportStory(t, audioDir, "First home", true),
			exportStory(t, audioDir, "First job", true),
			exportStory(t, audioDir, "Lost recording", false),
		}

		archive, err := bundler.ExportAll(stories)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		defer bundler.Cleanup(archive)

		files := readArchive(t, archive)

		doc, ok := files["metadata.json"]
		if !ok {
			t.Fatal("archive should contain metadata.json")
		}

		var metadata Metadata
		if err := json.Unmarshal(doc, &metadata); err != nil {
			t.Fatalf("failed to parse metadata: %v", err)
		}

		if metadata.TotalStories != 3 || len(metadata.Stories) != 3 {
			t.Errorf("metadata should list all 3 stories, got %d", len(metadata.Stories))
		}

		// metadata.json plus the two existing audio files.
		if len(files) != 3 {
			t.Errorf("expected 2 copied audio files, archive holds %d entries", len(files))
		}

		for _, entry := range metadata.Stories {
			if entry.FileName == "" {
				t.Errorf("story %s missing derived filename", entry.ID)
			}
			if entry.Date == "" {
				t.Errorf("story %s missing ISO date", entry.ID)
			}
		}
	})

	t.Run("Staging Dir Cleared Between Runs", func(t *testing.T) {
		audioDir := t.TempDir()
		dir := t.TempDir()
		bundler := NewBundler(BundlerOpts{Dir: dir})

		// Plant a leftover from a previous run.
		staging := filepath.Join(dir, stagingDirName)
		if err := os.MkdirAll(staging, 0755); err != nil {
			t.Fatalf("failed to create staging: %v", err)
		}
		if err := os.WriteFile(filepath.Join(staging, "stale.m4a"), []byte("old"), 0644); err != nil {
			t.Fatalf("failed to plant stale file: %v", err)
		}

		archive, err := bundler.ExportAll([]*models.Story{exportStory(t, audioDir, "Fresh", true)})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		files := readArchive(t, archive)
		if _, ok := files["stale.m4a"]; ok {
			t.Error("stale staging content leaked into the archive")
		}
	})

	t.Run("Unique Timestamped Archives", func(t *testing.T) {
		audioDir := t.TempDir()
		stamp := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		bundler := NewBundler(BundlerOpts{
			Dir: t.TempDir(),
			Now: func() time.Time {
				stamp = stamp.Add(time.Second)
				return stamp
			},
		})

		first, err := bundler.ExportAll([]*models.Story{exportStory(t, audioDir, "One", true)})
		if err != nil {
			t.Fatalf("first export failed: %v", err)
		}
		second, err := bundler.ExportAll([]*models.Story{exportStory(t, audioDir, "Two", true)})
		if err != nil {
			t.Fatalf("second export failed: %v", err)
		}

		if first == second {
			t.Errorf("consecutive exports should produce distinct archives, both %s", first)
		}
	})

	t.Run("Cleanup Is Idempotent", func(t *testing.T) {
		audioDir := t.TempDir()
		bundler := NewBundler(BundlerOpts{Dir: t.TempDir()})

		archive, err := bundler.ExportAll([]*models.Story{exportStory(t, audioDir, "One", true)})
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}

		bundler.Cleanup(archive)
		if _, err := os.Stat(archive); !os.IsNotExist(err) {
			t.Error("cleanup should remove the archive")
		}

		// Second call is a no-op.
		bundler.Cleanup(archive)
	})
}

func TestFileName(t *testing.T) {
	story := &models.Story{
		Title:    "My first/holiday story",
		Date:     time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC),
		FilePath: "/tmp/abc.m4a",
	}

	got := FileName(story)
	want := "My_first_holiday_story_2026-08-28_14-30.m4a"
	if got != want {
		t.Errorf("FileName = %q, want %q", got, want)
	}
}

func TestPrepareStory(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		bundler := NewBundler(BundlerOpts{Dir: t.TempDir()})
		story := exportStory(t, t.TempDir(), "Gone", false)

		_, err := bundler.PrepareStory(story)
		if !errors.Is(err, shared.ErrFileNotFound) {
			t.Errorf("expected ErrFileNotFound, got %v", err)
		}
	})

	t.Run("Copies Under Derived Name", func(t *testing.T) {
		dir := t.TempDir()
		bundler := NewBundler(BundlerOpts{Dir: dir})
		story := exportStory(t, t.TempDir(), "Share me", true)

		item, err := bundler.PrepareStory(story)
		if err != nil {
			t.Fatalf("prepare failed: %v", err)
		}

		if filepath.Base(item.AudioPath) != FileName(story) {
			t.Errorf("share copy should use the derived name, got %s", item.AudioPath)
		}
		if _, err := os.Stat(item.AudioPath); err != nil {
			t.Errorf("share copy should exist: %v", err)
		}
		if item.Summary == "" {
			t.Error("share item should carry a summary")
		}
	})
}
