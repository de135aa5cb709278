package models

import (
	"fmt"
	"time"
)

// Story is one recorded artifact: a short spoken answer to a prompt.
//
// ID, Date, Prompt, Duration and FilePath are immutable once the story has
// been saved. Transcription and IsTranscribed are set together, exactly once,
// by the transcription pipeline.
type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Prompt        string    `json:"prompt"`
	Duration      int       `json:"duration"` // elapsed recording seconds
	FilePath      string    `json:"filePath"`
	IsShared      bool      `json:"isShared"`
	Transcription string    `json:"transcription"` // empty until transcription succeeds
	IsTranscribed bool      `json:"isTranscribed"`
}

// Validate checks the story invariants before persistence.
func (s *Story) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("story ID is required")
	}
	if s.Prompt == "" {
		return fmt.Errorf("story prompt is required")
	}
	if s.FilePath == "" {
		return fmt.Errorf("story file path is required")
	}
	if s.Duration < 0 {
		return fmt.Errorf("story duration cannot be negative")
	}
	if s.IsTranscribed && s.Transcription == "" {
		return fmt.Errorf("transcribed story must carry transcription text")
	}
	return nil
}

// Prompt is one catalog entry. Built-in (seeded) prompts have a zero
// DateAdded; user-created prompts always carry the time they were added.
type Prompt struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Category      string    `json:"category"` // denormalized category name
	IsUserCreated bool      `json:"isUserCreated"`
	DateAdded     time.Time `json:"dateAdded"`
}

// Validate checks the prompt invariants before persistence.
func (p *Prompt) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prompt ID is required")
	}
	if p.Text == "" {
		return fmt.Errorf("prompt text is required")
	}
	if p.Category == "" {
		return fmt.Errorf("prompt category is required")
	}
	if p.IsUserCreated && p.DateAdded.IsZero() {
		return fmt.Errorf("user-created prompt must carry a date added")
	}
	return nil
}

// PromptCategory names a group of prompts. Categories are created lazily the
// first time a prompt references a name not already present.
type PromptCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
