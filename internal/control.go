package internal

import "fmt"

// Stop represents the reason for flow control.
type Stop int

// Control flow reasons.
const (
	// NoStop indicates normal execution.
	NoStop Stop = iota
	// ContinueStop should be interpreted by loops as a signal to restart the
	// loop immediately.
	ContinueStop
	// BreakStop should be interpreted by loops as a signal to exit the loop.
	BreakStop
	// ReturnStop should be interpreted by routines as a signal to exit.
	ReturnStop
	// ExceptionStop indicates that an exception is propagating. The job's
	// Raised method returns its details.
	ExceptionStop
	// TagStop indicates that the job is unwinding to the scope where a
	// stopped tag was entered. The result is the stop's payload.
	TagStop
)

var stopNames = [...]string{"normal", "continue", "break", "return", "exception", "tagstop"}

// String returns a string representation of the Stop.
func (s Stop) String() string {
	if s < NoStop || s > TagStop {
		return fmt.Sprintf("Stop(%d)", s)
	}
	return stopNames[s]
}

// Err returns nil if s is NoStop or an error value otherwise. Panics if s is
// not a valid Stop.
func (s Stop) Err() error {
	switch s {
	case NoStop:
		return nil
	case ContinueStop, BreakStop, ReturnStop, ExceptionStop, TagStop:
		return stopError(s)
	default:
		panic(fmt.Sprintf("urbi: invalid Stop: %d", int(s)))
	}
}

type stopError Stop

func (err stopError) Error() string {
	return Stop(err).String()
}

// unwind is a pending request to unwind a job to a tag scope.
type unwind struct {
	// depth is the index in the job's tag stack of the stopped tag. Scopes
	// holding that index absorb the stop. A negative depth is never absorbed,
	// so the job terminates.
	depth int
	// payload is the result of the absorbing scope.
	payload *Object
}

// merge combines two unwind requests, keeping the outermost target.
func (u *unwind) merge(v unwind) {
	if v.depth < u.depth {
		*u = v
	}
}
