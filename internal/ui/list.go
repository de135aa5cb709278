package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/shared"
)

var _ list.Item = storyItem{}

// storyItem wraps [models.Story] to implement [list.Item].
type storyItem struct {
	story *models.Story
}

func (i storyItem) FilterValue() string { return i.story.Title }
func (i storyItem) Title() string       { return i.story.Title }
func (i storyItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.story.Date.Format("Jan 2, 2006"), shared.FormatClock(i.story.Duration))
	if i.story.IsTranscribed {
		desc = fmt.Sprintf("%s • transcribed", desc)
	}
	return desc
}
