// Package tasks orchestrates bulk operations over the story library with
// real-time progress reporting.
//
// The [TranscribeEngine] transcribes every untranscribed story using a
// bounded worker pool behind a rate limiter, so a large backlog cannot
// saturate the speech engine. Progress updates flow through a non-blocking
// channel (select with default) for display by the CLI or TUI layer.
package tasks
