package domain

import "testing"

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StatePending, StateFetching, true},
		{StateFetching, StateFetched, true},
		{StateFetching, StateFetchFailed, true},
		{StateFetched, StateNormalized, true},
		{StateFetched, StateNormalizeFailed, true},
		{StateNormalized, StateIncluded, true},
		{StateFetchFailed, StateExcluded, true},
		{StateNormalizeFailed, StateExcluded, true},

		{StatePending, StateFetched, false},
		{StatePending, StateIncluded, false},
		{StateFetchFailed, StateNormalized, false},
		{StateIncluded, StateExcluded, false},
		{StateExcluded, StatePending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStateTerminal(t *testing.T) {
	terminal := map[State]bool{
		StatePending:         false,
		StateFetching:        false,
		StateFetched:         false,
		StateFetchFailed:     false,
		StateNormalized:      false,
		StateNormalizeFailed: false,
		StateIncluded:        true,
		StateExcluded:        true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestStateFailed(t *testing.T) {
	if !StateFetchFailed.Failed() || !StateNormalizeFailed.Failed() {
		t.Errorf("failure states must report Failed")
	}
	if StateIncluded.Failed() || StatePending.Failed() {
		t.Errorf("non-failure states must not report Failed")
	}
}
