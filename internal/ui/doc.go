// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the story library:
//  1. [StoryListView] : Browse recorded stories, newest first
//  2. [StoryDetailView] : Inspect one story, control playback with a live cursor
//  3. [TranscribeView] : Monitor an in-flight transcription
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Playback positions are sampled on a timer rather than pushed, so a slow
// terminal never stalls the audio subprocess.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, space, t, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
