package push

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ThomasSmeets/NuGet.Client/internal/feed"
)

// Classify maps the result of one upload call to exactly one Outcome.
func Classify(resp feed.Response, err error) Outcome {
	if err != nil {
		return classifyError(err)
	}

	out := Outcome{StatusCode: resp.StatusCode, StatusLine: resp.StatusLine()}
	switch {
	case resp.Success():
		out.Kind = Success
	case resp.StatusCode == http.StatusConflict:
		out.Kind = Duplicate
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		out.Kind = Invalid
	default:
		out.Kind = TransientFailure
		out.Err = &StatusError{StatusCode: resp.StatusCode, StatusLine: out.StatusLine}
	}
	return out
}

func classifyError(err error) Outcome {
	if errors.Is(err, feed.ErrTimeout) {
		return Outcome{Kind: TimedOut, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return Outcome{Kind: TransientFailure, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || isNetwork(err) {
		return Outcome{Kind: TransientFailure, Err: RootCause(err), Network: isNetwork(err)}
	}
	return Outcome{Kind: TransientFailure, Err: err}
}
