package engine

import "testing"

func TestOperationHappyPath(t *testing.T) {
	op := newOperation()
	for _, next := range []State{StateValidating, StateDecoding, StateBuilding, StatePersisting, StateDone} {
		if err := op.to(next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if !IsTerminal(op.state) {
		t.Fatalf("done must be terminal")
	}
}

func TestOperationSkipFromValidating(t *testing.T) {
	op := newOperation()
	if err := op.to(StateValidating); err != nil {
		t.Fatalf("to validating: %v", err)
	}
	if err := op.to(StateSkipped); err != nil {
		t.Fatalf("to skipped: %v", err)
	}
	if err := op.to(StateDecoding); err == nil {
		t.Fatalf("skipped is terminal, further transitions must fail")
	}
}

func TestOperationDisallowedJumps(t *testing.T) {
	op := newOperation()
	if err := op.to(StatePersisting); err == nil {
		t.Fatalf("idle -> persisting must be rejected")
	}
	if err := op.to(StateDone); err == nil {
		t.Fatalf("idle -> done must be rejected")
	}
}

func TestOperationFailFromAnyWorkingState(t *testing.T) {
	op := newOperation()
	op.to(StateValidating)
	op.to(StateDecoding)
	op.fail()
	if op.state != StateFailed {
		t.Fatalf("state = %s, want failed", op.state)
	}
	op.fail() // idempotent on terminal states
	if op.state != StateFailed {
		t.Fatalf("fail on terminal state must not move")
	}
}

func TestIsTerminal(t *testing.T) {
	for s, want := range map[State]bool{
		StateIdle: false, StateValidating: false, StateDecoding: false,
		StateBuilding: false, StatePersisting: false,
		StateDone: true, StateSkipped: true, StateFailed: true,
	} {
		if IsTerminal(s) != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", s, !want, want)
		}
	}
}
