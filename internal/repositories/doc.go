// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [StoryRepository] : recorded story persistence, queried newest-first
//   - [PromptRepository] : prompt catalog with lazy category creation and built-in seeding
//   - [StateRepository] : small key-value table backing the daily-prompt marker and the selected-prompt override
//
// Writes are whole-record upserts; no two components write the same story
// concurrently, so the repositories rely on last-writer-wins at the SQLite
// layer rather than field-level locking.
package repositories
