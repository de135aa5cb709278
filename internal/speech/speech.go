// Package speech defines the speech-to-text capability consumed by the
// transcription pipeline.
package speech

import "context"

// AuthStatus mirrors the authorization states a speech engine reports.
type AuthStatus int

const (
	AuthUndetermined AuthStatus = iota
	AuthAuthorized
	AuthDenied
	AuthRestricted
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAuthorized:
		return "authorized"
	case AuthDenied:
		return "denied"
	case AuthRestricted:
		return "restricted"
	default:
		return "undetermined"
	}
}

// Recognizer converts a persisted audio artifact into text.
type Recognizer interface {
	// Available reports whether the engine can accept requests right now.
	Available() bool

	// Authorization reports the engine's authorization state.
	Authorization() AuthStatus

	// Recognize transcribes the audio file at path. Cancellation flows
	// through ctx. An empty result is reported as an error, never as "".
	Recognize(ctx context.Context, path string) (string, error)
}
