// Package session implements the two state machines at the heart of
// storychop: the recording session that turns a prompt into a persisted
// story, and the player that reproduces a persisted story with a live
// position cursor.
//
// Transitions on one session object are serialized behind a mutex; timers
// are owned by the session and are always stopped on teardown. Both machines
// publish observable progress (elapsed seconds, playback position) on
// buffered channels that drop updates rather than block.
package session
