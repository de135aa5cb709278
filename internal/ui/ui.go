package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/storychop/storychop/internal/audio"
	"github.com/storychop/storychop/internal/models"
	"github.com/storychop/storychop/internal/repositories"
	"github.com/storychop/storychop/internal/session"
	"github.com/storychop/storychop/internal/shared"
	"github.com/storychop/storychop/internal/transcribe"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StoryListView ViewState = iota
	StoryDetailView
	TranscribeView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	stories  *repositories.StoryRepository
	playback audio.Playback
	pipeline *transcribe.Pipeline

	width  int
	height int

	storyList list.Model
	selected  *models.Story
	player    *session.Player
	cursor    float64

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, stories *repositories.StoryRepository, playback audio.Playback, pipeline *transcribe.Pipeline) *Model {
	return &Model{
		ctx:      ctx,
		view:     StoryListView,
		stories:  stories,
		playback: playback,
		pipeline: pipeline,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by loading the story library.
func (m *Model) Init() tea.Cmd {
	return m.loadStories()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.storyList.Width() == 0 {
			m.storyList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case StoryListView:
			return m.handleStoryListKeys(msg)
		case StoryDetailView:
			return m.handleDetailKeys(msg)
		case TranscribeView:
			return m.handleTranscribeKeys(msg)
		}

	case storiesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.stories))
		for i, story := range msg.stories {
			items[i] = storyItem{story: story}
		}
		m.storyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.storyList.Title = "Your Stories"
		m.storyList.SetSize(m.width-4, m.height-8)
		return m, nil

	case cursorTickMsg:
		if m.player == nil {
			return m, nil
		}
		m.cursor = m.player.Position()
		if m.player.State() == session.PlayerPlaying {
			return m, cursorTick()
		}
		return m, nil

	case transcribeDoneMsg:
		if msg.result.Err != nil {
			m.err = msg.result.Err
		} else if m.selected != nil {
			m.selected.Transcription = msg.result.Text
			m.selected.IsTranscribed = true
		}
		m.view = StoryDetailView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == StoryListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case StoryListView:
		return m.renderStoryList()
	case StoryDetailView:
		return m.renderDetail()
	case TranscribeView:
		return m.renderTranscribe()
	default:
		return ""
	}
}

func (m *Model) handleStoryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.storyList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(storyItem); ok {
				m.openStory(item.story)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.storyList, cmd = m.storyList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.closePlayer()
		return m, tea.Quit
	case "esc":
		m.closePlayer()
		m.selected = nil
		m.err = nil
		m.view = StoryListView
		return m, nil
	case " ":
		return m.togglePlayback()
	case "s":
		if m.player != nil {
			if err := m.player.Stop(); err == nil {
				m.cursor = 0
			}
		}
		return m, nil
	case "t":
		if m.selected != nil && !m.selected.IsTranscribed {
			m.view = TranscribeView
			m.err = nil
			return m, m.startTranscribe()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleTranscribeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.pipeline.Cancel()
		m.closePlayer()
		return m, tea.Quit
	case "esc":
		m.pipeline.Cancel()
		m.view = StoryDetailView
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == StoryListView {
		m.storyList, cmd = m.storyList.Update(msg)
	}
	return m, cmd
}

// openStory binds a fresh player to the chosen story. A missing artifact is
// not fatal here, the detail view reports the unavailable state instead.
func (m *Model) openStory(story *models.Story) {
	m.closePlayer()
	m.selected = story
	m.cursor = 0
	m.player = session.NewPlayer(session.PlayerOpts{Story: story, Playback: m.playback})
	if err := m.player.Setup(); err != nil {
		m.err = err
	}
	m.view = StoryDetailView
}

func (m *Model) togglePlayback() (tea.Model, tea.Cmd) {
	if m.player == nil {
		return m, nil
	}

	switch m.player.State() {
	case session.PlayerPlaying:
		if err := m.player.Pause(); err != nil {
			m.err = err
		}
		return m, nil
	case session.PlayerUnavailable:
		return m, nil
	default:
		if err := m.player.Play(); err != nil {
			m.err = err
			return m, nil
		}
		return m, cursorTick()
	}
}

func (m *Model) closePlayer() {
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	m.cursor = 0
}

func (m *Model) loadStories() tea.Cmd {
	return func() tea.Msg {
		stories, err := m.stories.List()
		return storiesLoadedMsg{stories: stories, err: err}
	}
}

func (m *Model) startTranscribe() tea.Cmd {
	story := m.selected
	results := make(chan transcribe.Result, 1)

	err := m.pipeline.Transcribe(m.ctx, story, func(r transcribe.Result) {
		results <- r
	})
	if err != nil {
		return func() tea.Msg {
			return transcribeDoneMsg{result: transcribe.Result{Story: story, Err: err}}
		}
	}

	return func() tea.Msg {
		select {
		case r := <-results:
			return transcribeDoneMsg{result: r}
		case <-m.ctx.Done():
			return transcribeDoneMsg{result: transcribe.Result{Story: story, Err: m.ctx.Err()}}
		}
	}
}

func (m *Model) renderStoryList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.storyList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}

	title := styles.title.Render(m.selected.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "Recorded: %s\n", m.selected.Date.Format("Jan 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&b, "Prompt: %s\n", m.selected.Prompt)
	fmt.Fprintf(&b, "Length: %s\n", shared.FormatClock(m.selected.Duration))

	var status string
	if m.player != nil {
		switch m.player.State() {
		case session.PlayerPlaying:
			status = fmt.Sprintf("▶ %s / %s", shared.FormatClock(int(m.cursor)), shared.FormatClock(m.selected.Duration))
		case session.PlayerPaused:
			status = styles.warn.Render(fmt.Sprintf("⏸ %s / %s", shared.FormatClock(int(m.cursor)), shared.FormatClock(m.selected.Duration)))
		case session.PlayerCompleted:
			status = styles.ok.Render("Finished")
		case session.PlayerUnavailable:
			status = styles.err.Render("Audio file missing")
		default:
			status = styles.help.Render("Stopped")
		}
	}
	fmt.Fprintf(&b, "\n%s\n", status)

	if m.selected.IsTranscribed {
		fmt.Fprintf(&b, "\n%s\n%s\n", styles.ok.Render("Transcription"), m.selected.Transcription)
	}

	if m.err != nil {
		fmt.Fprintf(&b, "\n%s\n", styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.stop}
	if !m.selected.IsTranscribed {
		helpKeys = append(helpKeys, m.keys.transcribe)
	}
	helpKeys = append(helpKeys, m.keys.back, m.keys.quit)
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, b.String(), helpView)
}

func (m *Model) renderTranscribe() string {
	title := styles.title.Render("Transcribing")
	body := "Listening back through your story..."
	if m.selected != nil {
		body = fmt.Sprintf("Listening back through %q...", m.selected.Title)
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}
