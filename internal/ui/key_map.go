package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	enter      key.Binding
	back       key.Binding
	toggle     key.Binding
	stop       key.Binding
	transcribe key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		transcribe: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "transcribe")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.toggle, k.stop, k.transcribe},
		{k.back, k.quit},
	}
}
