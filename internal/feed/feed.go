// Package feed uploads package artifacts to remote or local package feeds.
//
// Uploaders report what the feed answered; they never decide whether an
// answer is fatal. Non-success status codes come back as a Response, and only
// failures to get an answer at all come back as errors.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ThomasSmeets/NuGet.Client/internal/model"
)

// Request describes a single upload attempt.
type Request struct {
	ArtifactPath      string
	Source            string
	APIKey            string
	Timeout           time.Duration
	DisableBuffering  bool
	NoServiceEndpoint bool
	SessionID         model.SessionID
}

// Response is the feed's answer to an upload.
type Response struct {
	StatusCode int
	// Status is the raw status line, e.g. "409 Conflict".
	Status   string
	Endpoint string
	Elapsed  time.Duration
}

// Uploader pushes one artifact to one feed.
type Uploader interface {
	Upload(ctx context.Context, req Request) (Response, error)
}

// Success reports a 2xx answer.
func (r Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Reason returns the reason phrase the feed sent, falling back to the
// standard text for the code.
func (r Response) Reason() string {
	reason := strings.TrimSpace(strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode)))
	if reason == "" {
		reason = http.StatusText(r.StatusCode)
	}
	return reason
}

// StatusLine renders the answer as "500 (Internal Server Error)".
func (r Response) StatusLine() string {
	if reason := r.Reason(); reason != "" {
		return fmt.Sprintf("%d (%s)", r.StatusCode, reason)
	}
	return strconv.Itoa(r.StatusCode)
}

func statusResponse(code int, endpoint string, started time.Time) Response {
	return Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Endpoint:   endpoint,
		Elapsed:    time.Since(started),
	}
}
