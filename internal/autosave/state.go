package autosave

// State is the lifecycle phase of a Coordinator.
type State int

const (
	// Idle: nothing unsaved.
	Idle State = iota
	// Pending: a changed snapshot is waiting for the debounce timer.
	Pending
	// Saving: a persist call is in flight.
	Saving
	// Failed: the last persist returned an error and the snapshot is still pending.
	Failed
	// Closed: the owner went away; no further state changes.
	Closed
)

var stateNames = [...]string{"idle", "pending", "saving", "failed", "closed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Trigger is an input to the state machine.
type Trigger int

const (
	// Changed: a snapshot differing from the last known one arrived.
	Changed Trigger = iota
	// Reverted: the snapshot went back to the persisted baseline before any save started.
	Reverted
	// TimerFired: the debounce window elapsed with a snapshot pending.
	TimerFired
	// SaveSucceeded: persist returned nil and the persisted snapshot is the latest one.
	SaveSucceeded
	// SaveSuperseded: persist returned nil but newer edits arrived meanwhile.
	SaveSuperseded
	// SaveFailed: persist returned an error.
	SaveFailed
	// CloseRequested: the owner is tearing the coordinator down.
	CloseRequested
)

// Transition returns the state reached from s on trigger t. Pairs with no
// defined edge leave the state unchanged.
func Transition(s State, t Trigger) State {
	if s == Closed {
		return Closed
	}
	if t == CloseRequested {
		return Closed
	}

	switch s {
	case Idle:
		if t == Changed {
			return Pending
		}
	case Pending:
		switch t {
		case Reverted:
			return Idle
		case TimerFired:
			return Saving
		}
	case Saving:
		switch t {
		case SaveSucceeded:
			return Idle
		case SaveSuperseded:
			return Pending
		case SaveFailed:
			return Failed
		}
	case Failed:
		switch t {
		case Changed:
			return Pending
		case Reverted:
			return Idle
		case TimerFired:
			return Saving
		}
	}
	return s
}
