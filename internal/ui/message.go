package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/transcribe"
)

// storiesLoadedMsg carries the library contents fetched on startup.
type storiesLoadedMsg struct {
	stories []*models.Story
	err     error
}

// cursorTickMsg drives the playback cursor refresh.
type cursorTickMsg time.Time

// transcribeDoneMsg carries the outcome of a transcription request.
type transcribeDoneMsg struct {
	result transcribe.Result
}

// cursorInterval is how often the detail view samples the playback position.
const cursorInterval = 200 * time.Millisecond

func cursorTick() tea.Cmd {
	return tea.Tick(cursorInterval, func(t time.Time) tea.Msg {
		return cursorTickMsg(t)
	})
}
