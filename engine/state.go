package engine

import "fmt"

// State names one phase of a conversion or merge operation.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateDecoding   State = "decoding"
	StateBuilding   State = "building"
	StatePersisting State = "persisting"
	StateDone       State = "done"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

// IsTerminal reports whether the state is terminal (finished).
func IsTerminal(s State) bool {
	switch s {
	case StateDone, StateSkipped, StateFailed:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateValidating
	case StateValidating:
		return to == StateSkipped || to == StateDecoding || to == StateFailed
	case StateDecoding:
		return to == StateBuilding || to == StateFailed
	case StateBuilding:
		return to == StatePersisting || to == StateFailed
	case StatePersisting:
		return to == StateDone || to == StateFailed
	default:
		return false
	}
}

// operation tracks one invocation's progress through the state machine.
// Transitions are validated so a sequencing bug surfaces as an error
// instead of a corrupt artifact.
type operation struct {
	state State
}

func newOperation() *operation { return &operation{state: StateIdle} }

func (o *operation) to(next State) error {
	if !isAllowedTransition(o.state, next) {
		return fmt.Errorf("engine: disallowed transition %s -> %s", o.state, next)
	}
	o.state = next
	return nil
}

// fail moves to Failed from any non-terminal state; it is the one
// transition every working state may take.
func (o *operation) fail() {
	if !IsTerminal(o.state) {
		o.state = StateFailed
	}
}
