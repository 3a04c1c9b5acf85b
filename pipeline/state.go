package pipeline

import (
	"time"

	"github.com/poiesic/tabulate/core"
)

// State is a step of the per-document state machine.
type State int

const (
	StateClassifying State = iota
	StateExtracting
	StateRetrying
	StateMerging
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateClassifying: "classifying",
	StateExtracting:  "extracting",
	StateRetrying:    "retrying",
	StateMerging:     "merging",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition describes one state change of a document.
type Transition struct {
	FileName string
	Modality core.Modality
	From     State
	To       State
	// Attempt is the number of extraction calls made so far.
	Attempt int
	// Delay is the wait just served, set on the move from StateRetrying back
	// to StateExtracting and zero on every other transition.
	Delay time.Duration
	// Err is the error that caused a move to Retrying or Failed.
	Err error
}

// Observer receives every transition. It is called from the document's
// goroutine and must be safe for concurrent use.
type Observer func(Transition)
