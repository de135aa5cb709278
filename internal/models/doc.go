// Package models defines the data model for storychop: recorded stories and
// the prompt catalog they answer.
//
// Story and Prompt/PromptCategory are independent aggregates owned by the
// persistent store. The rest of the application holds no long-lived in-memory
// state beyond transient session objects (a recording in progress, a playback
// cursor, a cached prompt pool).
package models
