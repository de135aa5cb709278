// Package audio defines the capture and playback capabilities the session
// controllers drive.
//
// The interfaces mirror what a platform audio layer offers: open a capture
// against a destination file with a fixed encoding, start/stop it, and load
// a persisted artifact for reproduction with a readable position. Subprocess
// implementations live in exec.go; tests substitute fakes.
package audio

import "fmt"

// EncodingConfig is the fixed encoding used for new recordings.
type EncodingConfig struct {
	SampleRate int
	Channels   int
	Extension  string
}

// DefaultEncoding is mono 44.1kHz with an AAC container, matching what the
// recordings directory is expected to hold.
func DefaultEncoding() EncodingConfig {
	return EncodingConfig{SampleRate: 44100, Channels: 1, Extension: "m4a"}
}

// Validate rejects configurations a capture backend cannot honor.
func (c EncodingConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channel count must be positive")
	}
	if c.Extension == "" {
		return fmt.Errorf("extension is required")
	}
	return nil
}

// Capture opens recording sessions against artifact destinations.
type Capture interface {
	// Open allocates a capture session writing to dest with the given
	// encoding. Opening must not start capturing.
	Open(dest string, cfg EncodingConfig) (CaptureSession, error)
}

// CaptureSession is one in-progress recording.
type CaptureSession interface {
	// Start begins (or resumes after Pause) writing audio to the destination.
	Start() error
	// Pause suspends capture without finalizing the file.
	Pause() error
	// Stop finalizes the destination file. The session cannot be restarted.
	Stop() error
	// Abort discards the session without finalizing; the destination file is
	// left for the caller to delete.
	Abort() error
}

// Playback loads persisted artifacts for reproduction.
type Playback interface {
	// Load prepares path for playback. Fails when the artifact cannot be
	// decoded or the playback device is unavailable.
	Load(path string) (PlaybackHandle, error)
}

// PlaybackHandle is one loaded artifact.
type PlaybackHandle interface {
	// Play begins (or resumes) reproduction.
	Play() error
	// Pause suspends reproduction keeping the position.
	Pause() error
	// Stop halts reproduction and rewinds to the start.
	Stop() error
	// Position reports the current cursor in seconds from the start.
	Position() float64
	// Done reports completion; the value is false when reproduction ended
	// abnormally. The channel is closed after delivery.
	Done() <-chan bool
	// Close releases the underlying device. The handle is unusable afterward.
	Close() error
}
