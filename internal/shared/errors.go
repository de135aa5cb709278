package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Capability errors (capture device, playback device, speech engine)
	ErrCapabilityUnavailable = fmt.Errorf("capability unavailable")
	ErrAuthDenied            = fmt.Errorf("speech recognition access denied")
	ErrAuthRestricted        = fmt.Errorf("speech recognition restricted")
	ErrAuthUndetermined      = fmt.Errorf("speech recognition authorization undetermined")
	ErrNoResult              = fmt.Errorf("no transcription result")

	// Resource and persistence errors
	ErrFileNotFound = fmt.Errorf("audio file not found")
	ErrPersistence  = fmt.Errorf("persistence failure")
	ErrCorruptStore = fmt.Errorf("store is corrupt")

	// Session state errors
	ErrInvalidState      = fmt.Errorf("invalid session state")
	ErrRecordingTooShort = fmt.Errorf("recording is too short to save")
	ErrBusy              = fmt.Errorf("operation already in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
