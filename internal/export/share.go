package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

// ShareItem is a single story prepared for handing to an external share
// target: a copy of the audio under its derived name plus a text summary.
type ShareItem struct {
	AudioPath string
	Summary   string
}

// PrepareStory copies the story's audio into the bundler's directory under
// its derived filename and returns the share item. A missing artifact
// surfaces as [shared.ErrFileNotFound].
func (b *Bundler) PrepareStory(story *models.Story) (*ShareItem, error) {
	if _, err := os.Stat(story.FilePath); err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrFileNotFound, story.FilePath)
	}

	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	dst := filepath.Join(b.dir, FileName(story))
	if err := copyFile(story.FilePath, dst); err != nil {
		return nil, fmt.Errorf("failed to copy audio for sharing: %w", err)
	}

	summary := fmt.Sprintf("Story: %s\nRecorded: %s", story.Title, story.Date.Format("Jan 2, 2006 at 3:04 PM"))

	b.logger.Info("story prepared for sharing", "story", story.ID, "copy", dst)
	return &ShareItem{AudioPath: dst, Summary: summary}, nil
}
