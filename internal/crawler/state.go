package crawler

import "fmt"

// State is the lifecycle state of an Engine.
type State int

const (
	// StateIdle means no run has started yet.
	StateIdle State = iota
	// StateRunning means a run is in progress.
	StateRunning
	// StateCompleted means the last run ended normally.
	StateCompleted
	// StateAborted means the last run ended on a fatal error or cancellation.
	StateAborted
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState converts a name produced by State.String back to a State.
func ParseState(name string) (State, error) {
	for _, st := range []State{StateIdle, StateRunning, StateCompleted, StateAborted} {
		if st.String() == name {
			return st, nil
		}
	}
	return StateIdle, fmt.Errorf("unknown crawl state %q", name)
}
