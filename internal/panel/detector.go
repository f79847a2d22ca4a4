package panel

// LockState is the last door state seen by a Detector
type LockState int

const (
	// LockUnknown means no status has been observed yet
	LockUnknown LockState = iota
	LockLocked
	LockUnlocked
)

func (s LockState) String() string {
	switch s {
	case LockLocked:
		return "locked"
	case LockUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

func lockStateOf(locked bool) LockState {
	if locked {
		return LockLocked
	}
	return LockUnlocked
}

// Transition adopts the current door state and reports whether the step
// from previous is a locked to unlocked edge. An unknown previous state
// never produces an edge.
func Transition(previous LockState, locked bool) (next LockState, unlocked bool) {
	return lockStateOf(locked), previous == LockLocked && !locked
}

// Detector holds the previous door state across polls.
// The zero value starts in LockUnknown.
type Detector struct {
	previous LockState
}

// Observe records a successfully polled door state and reports whether it
// completes a locked to unlocked edge. Failed polls must not be observed.
func (d *Detector) Observe(locked bool) bool {
	var unlocked bool
	d.previous, unlocked = Transition(d.previous, locked)
	return unlocked
}

// Previous returns the last observed state
func (d *Detector) Previous() LockState {
	return d.previous
}
