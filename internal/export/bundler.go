// Package export packages stories (metadata plus audio artifacts) into a
// single transferable archive, and prepares single stories for sharing.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

// stagingDirName is the fixed staging directory inside the export dir. A
// pre-existing one from an earlier run is cleared before use.
const stagingDirName = "StoryChopExport"

// Metadata is the JSON document written alongside the audio files.
type Metadata struct {
	ExportDate   string       `json:"exportDate"`
	TotalStories int          `json:"totalStories"`
	Stories      []StoryEntry `json:"stories"`
}

// StoryEntry is one story's metadata row.
type StoryEntry struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Prompt        string `json:"prompt"`
	Duration      int    `json:"duration"`
	IsShared      bool   `json:"isShared"`
	IsTranscribed bool   `json:"isTranscribed"`
	Transcription string `json:"transcription"`
	FileName      string `json:"fileName"`
}

// Bundler builds export archives under a configured directory.
type Bundler struct {
	dir    string
	logger *log.Logger
	now    func() time.Time
}

// BundlerOpts contains dependencies for the bundler.
type BundlerOpts struct {
	Dir    string // destination for staging dir and archives
	Logger *log.Logger
	Now    func() time.Time // defaults to time.Now, injectable for tests
}

// NewBundler creates a bundler writing into opts.Dir.
func NewBundler(opts BundlerOpts) *Bundler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bundler{dir: opts.Dir, logger: opts.Logger, now: opts.Now}
}

// ExportAll bundles the given stories into one archive and returns its path.
//
// Every story is listed in the metadata document; stories whose audio file is
// gone are skipped from the file copy but stay listed. The first I/O error
// aborts the export; a partially written staging directory is left for a
// later Cleanup call.
func (b *Bundler) ExportAll(stories []*models.Story) (string, error) {
	staging := filepath.Join(b.dir, stagingDirName)

	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	metadata := Metadata{
		ExportDate:   b.now().UTC().Format(time.RFC3339),
		TotalStories: len(stories),
		Stories:      make([]StoryEntry, 0, len(stories)),
	}
	for _, story := range stories {
		metadata.Stories = append(metadata.Stories, StoryEntry{
			ID:            story.ID,
			Title:         story.Title,
			Date:          story.Date.UTC().Format(time.RFC3339),
			Prompt:        story.Prompt,
			Duration:      story.Duration,
			IsShared:      story.IsShared,
			IsTranscribed: story.IsTranscribed,
			Transcription: story.Transcription,
			FileName:      FileName(story),
		})
	}

	doc, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "metadata.json"), doc, 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata: %w", err)
	}

	for _, story := range stories {
		if _, err := os.Stat(story.FilePath); err != nil {
			b.logger.Warn("audio file missing, listed in metadata only", "story", story.ID, "path", story.FilePath)
			continue
		}
		if err := copyFile(story.FilePath, filepath.Join(staging, FileName(story))); err != nil {
			return "", fmt.Errorf("failed to copy %s: %w", story.FilePath, err)
		}
	}

	archive := filepath.Join(b.dir, fmt.Sprintf("StoryChop_Export_%d.zip", b.now().Unix()))
	if err := zipDirectory(staging, archive); err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	b.logger.Info("export complete", "archive", archive, "stories", len(stories))
	return archive, nil
}

// Cleanup deletes a previously produced archive or staging directory. It
// never fails the caller: problems are logged, and cleaning something
// already gone is a no-op.
func (b *Bundler) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		b.logger.Warn("failed to clean up export artifact", "path", path, "err", err)
	}
}

// FileName derives the archive-internal filename for a story:
// the title with spaces and slashes replaced by underscores, the recording
// minute, and the artifact's extension.
func FileName(story *models.Story) string {
	title := story.Title
	for _, c := range []string{" ", "/", "\\"} {
		title = strings.ReplaceAll(title, c, "_")
	}

	ext := strings.TrimPrefix(filepath.Ext(story.FilePath), ".")
	if ext == "" {
		ext = "m4a"
	}

	return fmt.Sprintf("%s_%s.%s", title, story.Date.Format("2006-01-02_15-04"), ext)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// zipDirectory writes every regular file under dir into a fresh archive.
func zipDirectory(dir, archive string) error {
	f, err := os.Create(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		dst, err := w.Create(rel)
		if err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		w.Close()
		return err
	}

	return w.Close()
}
