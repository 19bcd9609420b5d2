package domain

// State is the lifecycle position of one input URL within a run.
// Every URL starts Pending and ends in exactly one terminal state.
type State string

// Per-URL lifecycle states.
const (
	StatePending         State = "pending"
	StateFetching        State = "fetching"
	StateFetched         State = "fetched"
	StateFetchFailed     State = "fetch_failed"
	StateNormalized      State = "normalized"
	StateNormalizeFailed State = "normalize_failed"
	StateIncluded        State = "included_in_corpus"
	StateExcluded        State = "excluded"
)

// transitions is the set of legal state changes.
var transitions = map[State][]State{
	StatePending:         {StateFetching},
	StateFetching:        {StateFetched, StateFetchFailed},
	StateFetched:         {StateNormalized, StateNormalizeFailed},
	StateNormalized:      {StateIncluded},
	StateFetchFailed:     {StateExcluded},
	StateNormalizeFailed: {StateExcluded},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a final state for the run.
func (s State) Terminal() bool {
	return s == StateIncluded || s == StateExcluded
}

// Failed reports whether s records a per-URL failure.
func (s State) Failed() bool {
	return s == StateFetchFailed || s == StateNormalizeFailed
}
