package session

// State is a step of a run. A run moves forward through the states in order and
// ends in StateDone or StateFailed.
type State int

const (
	StateIdle State = iota
	StateDiscovering
	StateSelecting
	StateProbing
	StatePlanning
	StateExtracting
	StateComposing
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateDiscovering: "discovering",
	StateSelecting:   "selecting",
	StateProbing:     "probing",
	StatePlanning:    "planning",
	StateExtracting:  "extracting",
	StateComposing:   "composing",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
