package recording

import "fmt"

// State represents the observable recorder state.
// It is derived from the worker's session on every query and never stored.
type State int

const (
	// Idle means no session is open
	Idle State = iota
	// SessionOpen means a session exists but is not recording
	SessionOpen
	// Recording means the session is appending captured samples
	Recording
)

// String returns the wire representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case SessionOpen:
		return "SESSION"
	case Recording:
		return "RECORDING"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state as IDLE, SESSION or RECORDING
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState parses IDLE, SESSION or RECORDING
func ParseState(s string) (State, error) {
	switch s {
	case "IDLE":
		return Idle, nil
	case "SESSION":
		return SessionOpen, nil
	case "RECORDING":
		return Recording, nil
	default:
		return Idle, fmt.Errorf("unknown recorder state: %q", s)
	}
}
