package feed

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is the cause attached to an upload context whose configured
// timeout elapsed.
var ErrTimeout = errors.New("feed: upload timed out")

// TimeoutError reports an upload cancelled by its own deadline.
// It matches both ErrTimeout and the underlying cancellation error.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("feed: upload timed out after %s: %v", e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrTimeout, e.Err}
}

// SourceError reports a source the uploaders cannot use.
type SourceError struct {
	Source string
	Reason string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("feed: source %q: %s", e.Source, e.Reason)
}

// WithTimeout derives the context bounding one upload. A non-positive
// timeout leaves the upload bounded only by the parent.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, timeout, ErrTimeout)
}

// CheckTimeout converts err into a *TimeoutError when ctx, as returned by
// WithTimeout, expired because of its own deadline. Parent cancellation and
// unrelated errors pass through unchanged.
func CheckTimeout(ctx context.Context, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), ErrTimeout) {
		return &TimeoutError{Timeout: timeout, Err: err}
	}
	return err
}
