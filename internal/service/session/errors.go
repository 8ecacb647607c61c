package session

import (
	"errors"
	"fmt"
)

// Errors reported by the coordinator's public operations.
var (
	// ErrNotAuthorized - the upstream recognition capability is unavailable
	// or was denied.
	ErrNotAuthorized = errors.New("recognition capability not authorized")

	// ErrNoActiveSession - the operation requires an active session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionActive - start was called while a session is already running.
	ErrSessionActive = errors.New("session already active")

	// ErrAudioPipelineFailure - the external audio intake collaborator
	// failed to initialize.
	ErrAudioPipelineFailure = errors.New("audio pipeline failure")
)

// State represents the coordinator lifecycle state.
type State int

const (
	// StateIdle - no session has been started.
	StateIdle State = iota
	// StateActive - a session is running.
	StateActive
	// StateStopped - the session ended; the ledger is frozen. Terminal.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}
