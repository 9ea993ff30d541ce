package models

import "testing"

func TestNodeState_Valid(t *testing.T) {
	for _, state := range []NodeState{StatePending, StateProvisioning, StateConfiguring, StateRunning, StateFailed} {
		if !state.Valid() {
			t.Errorf("Expected %s to be valid", state)
		}
	}
	if NodeState("REBOOTING").Valid() {
		t.Error("Expected unknown state to be invalid")
	}
	if NodeState("").Valid() {
		t.Error("Expected empty state to be invalid")
	}
}

func TestNodeState_Terminal(t *testing.T) {
	terminal := map[NodeState]bool{
		StatePending:      false,
		StateProvisioning: false,
		StateConfiguring:  false,
		StateRunning:      true,
		StateFailed:       true,
	}
	for state, want := range terminal {
		if state.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, state.Terminal(), want)
		}
	}
}

func TestInFlightStates(t *testing.T) {
	if len(InFlightStates) != 3 {
		t.Fatalf("Expected 3 in-flight states, got %d", len(InFlightStates))
	}
	for _, state := range InFlightStates {
		if state.Terminal() {
			t.Errorf("In-flight state %s must not be terminal", state)
		}
	}
}
