package pass

import (
	"time"

	"flux/internal/form"
)

// Status of one pass execution, as seen by a Hook.
type Status uint8

const (
	StatusStart Status = iota
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one pass execution observation.
type Event struct {
	Pass   string
	Status Status
	// Form is the state form going into the pass on start events and
	// the forced output form on done events.
	Form    form.Form
	Err     error
	Elapsed time.Duration
}

// Hook observes pass execution. Run invokes it around every pass,
// including the sub-passes of a composite. A nil Hook observes nothing.
type Hook func(Event)

func emit(h Hook, ev Event) {
	if h != nil {
		h(ev)
	}
}
