package push

import (
	"errors"
	"fmt"
)

// TimeoutMessage replaces the cancellation detail of a timed out upload.
const TimeoutMessage = "Push operation timed out."

const statusFailurePrefix = "Response status code does not indicate success"

// ErrNoSource is returned when neither the request nor the settings name a
// feed to push to.
var ErrNoSource = errors.New("push: source parameter was not specified")

// ErrorKind classifies a fatal push error.
type ErrorKind int

const (
	KindDuplicate ErrorKind = iota + 1
	KindInvalid
	KindTimeout
	KindTransientNetwork
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindInvalid:
		return "invalid"
	case KindTimeout:
		return "timeout"
	case KindTransientNetwork:
		return "transient_network_failure"
	case KindUnexpected:
		return "unexpected_failure"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// StatusError reports a feed answer that is not a success.
type StatusError struct {
	StatusCode int
	StatusLine string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s.", statusFailurePrefix, e.StatusLine)
}

// Error is the fatal error of one push phase. Its message is what the user
// sees; Cause keeps the underlying error for errors.Is/As.
type Error struct {
	Kind     ErrorKind
	Artifact string
	Source   string
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// fatalError converts a non-tolerated outcome into the error surfaced to
// the user. It returns nil for Success.
func (o Outcome) fatalError(artifact, source string) *Error {
	e := &Error{Artifact: artifact, Source: source, Cause: o.Err}
	switch o.Kind {
	case Success:
		return nil
	case Duplicate, Invalid:
		e.Kind = KindDuplicate
		if o.Kind == Invalid {
			e.Kind = KindInvalid
		}
		status := &StatusError{StatusCode: o.StatusCode, StatusLine: o.StatusLine}
		e.Message = status.Error()
		e.Cause = status
	case TimedOut:
		e.Kind = KindTimeout
		e.Message = TimeoutMessage
	case TransientFailure:
		e.Kind = KindUnexpected
		if o.Network {
			e.Kind = KindTransientNetwork
		}
		e.Message = o.Err.Error()
	}
	return e
}
