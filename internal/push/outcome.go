package push

import (
	"fmt"
)

// Kind tags the result of one upload attempt.
type Kind int

const (
	Success Kind = iota
	Duplicate
	Invalid
	TransientFailure
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Duplicate:
		return "duplicate"
	case Invalid:
		return "invalid"
	case TransientFailure:
		return "transient_failure"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the classified result of one upload attempt. Exactly one Kind
// applies; the other fields carry that kind's payload.
type Outcome struct {
	Kind Kind
	// StatusCode and StatusLine are set whenever the feed answered.
	StatusCode int
	StatusLine string
	// Err is set for TransientFailure and TimedOut. For network failures
	// it is the root cause, not the transport wrapper.
	Err error
	// Network marks a TransientFailure caused by a connectivity fault.
	Network bool
}
