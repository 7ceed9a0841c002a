package feed

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasSmeets/NuGet.Client/internal/feedtest"
	"github.com/ThomasSmeets/NuGet.Client/internal/model"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient()
	require.NoError(t, err)
	return c
}

func TestClient_Upload_Created(t *testing.T) {
	server := feedtest.NewServer(t)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "package bytes \x00\x01\x02")

	resp, err := newTestClient(t).Upload(context.Background(), Request{
		ArtifactPath: artifact,
		Source:       server.PushURL(),
		APIKey:       "secret",
		Timeout:      10 * time.Second,
		SessionID:    model.SessionID("01890c24-905b-7122-b170-b60814e6ee06"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, resp.Success())
	assert.Equal(t, "201 (Created)", resp.StatusLine())
	assert.Equal(t, server.PushURL(), resp.Endpoint)

	stored, ok := server.Package("PackageA.1.1.0.nupkg")
	require.True(t, ok)
	want, _ := os.ReadFile(artifact)
	assert.Equal(t, want, stored)

	requests := server.Requests()
	require.Len(t, requests, 1)
	r := requests[0]
	assert.Equal(t, http.MethodPut, r.Method)
	assert.Equal(t, "/push", r.URL.Path)
	assert.Equal(t, "secret", r.Header.Get(apiKeyHeader))
	assert.Equal(t, protocolVersion, r.Header.Get(protocolVersionHeader))
	assert.Equal(t, "01890c24-905b-7122-b170-b60814e6ee06", r.Header.Get(sessionIDHeader))
	assert.Equal(t, BuildUserAgent(), r.Header.Get("User-Agent"))
	assert.Positive(t, r.ContentLength, "buffered pushes carry a Content-Length")
}

func TestClient_Upload_DisableBufferingStreams(t *testing.T) {
	server := feedtest.NewServer(t)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "streamed package")

	resp, err := newTestClient(t).Upload(context.Background(), Request{
		ArtifactPath:     artifact,
		Source:           server.PushURL(),
		DisableBuffering: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	stored, ok := server.Package("PackageA.1.1.0.nupkg")
	require.True(t, ok)
	assert.Equal(t, "streamed package", string(stored))

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, int64(-1), requests[0].ContentLength, "streamed pushes are chunked")
	assert.Empty(t, requests[0].Header.Get(apiKeyHeader), "no key, no header")
}

func TestClient_Upload_NonSuccessIsNotAnError(t *testing.T) {
	tests := []struct {
		name string
		code int
		line string
	}{
		{name: "conflict", code: http.StatusConflict, line: "409 (Conflict)"},
		{name: "server error", code: http.StatusInternalServerError, line: "500 (Internal Server Error)"},
		{name: "unauthorized", code: http.StatusUnauthorized, line: "401 (Unauthorized)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := feedtest.NewServer(t, feedtest.WithStatus(tt.code))
			artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "x")

			resp, err := newTestClient(t).Upload(context.Background(), Request{ArtifactPath: artifact, Source: server.PushURL()})
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.False(t, resp.Success())
			assert.Equal(t, tt.line, resp.StatusLine())
		})
	}
}

func TestClient_Upload_Timeout(t *testing.T) {
	server := feedtest.NewServer(t, feedtest.WithDelay(2*time.Second))
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "slow")

	_, err := newTestClient(t).Upload(context.Background(), Request{
		ArtifactPath: artifact,
		Source:       server.PushURL(),
		Timeout:      100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 100*time.Millisecond, timeoutErr.Timeout)
	assert.Zero(t, server.Len(), "timed out push must not be stored")
}

func TestClient_Upload_ParentCancelIsNotATimeout(t *testing.T) {
	server := feedtest.NewServer(t, feedtest.WithDelay(2*time.Second))
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "slow")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t).Upload(ctx, Request{
		ArtifactPath: artifact,
		Source:       server.PushURL(),
		Timeout:      time.Minute,
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
}

// deadlineRecorder captures the deadline of the outgoing request's context.
type deadlineRecorder struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineRecorder) RoundTrip(r *http.Request) (*http.Response, error) {
	d.deadline, d.ok = r.Context().Deadline()
	return &http.Response{
		StatusCode: http.StatusCreated,
		Status:     "201 Created",
		Body:       http.NoBody,
		Request:    r,
	}, nil
}

func TestClient_Upload_LongTimeoutIsNotCapped(t *testing.T) {
	recorder := &deadlineRecorder{}
	c, err := NewClient(WithHTTPClient(&http.Client{Transport: recorder}))
	require.NoError(t, err)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "x")

	before := time.Now()
	resp, err := c.Upload(context.Background(), Request{
		ArtifactPath: artifact,
		Source:       "https://feed.example/push",
		Timeout:      110 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, recorder.ok)
	assert.WithinDuration(t, before.Add(110*time.Second), recorder.deadline, 5*time.Second)
	assert.Zero(t, c.httpClient.Timeout)
}

func TestClient_Upload_SlowFeedBeyondHundredSeconds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow feed test in short mode")
	}

	server := feedtest.NewServer(t, feedtest.WithDelay(101*time.Second))
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "patient package")

	resp, err := newTestClient(t).Upload(context.Background(), Request{
		ArtifactPath: artifact,
		Source:       server.PushURL(),
		Timeout:      110 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	stored, ok := server.Package("PackageA.1.1.0.nupkg")
	require.True(t, ok)
	assert.Equal(t, "patient package", string(stored))
}

func TestClient_Upload_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "x")
	_, err = newTestClient(t).Upload(context.Background(), Request{
		ArtifactPath: artifact,
		Source:       "http://" + addr + "/push",
		Timeout:      5 * time.Second,
	})
	require.Error(t, err)

	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)
	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestClient_Upload_MissingArtifact(t *testing.T) {
	server := feedtest.NewServer(t)
	_, err := newTestClient(t).Upload(context.Background(), Request{
		ArtifactPath: filepath.Join(t.TempDir(), "missing.nupkg"),
		Source:       server.PushURL(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, server.Requests())
}

func TestServiceEndpoint(t *testing.T) {
	tests := []struct {
		name              string
		source            string
		noServiceEndpoint bool
		want              string
		wantErr           bool
	}{
		{name: "bare host gets service path", source: "https://feed.example", want: "https://feed.example/api/v2/package"},
		{name: "root slash gets service path", source: "https://feed.example/", want: "https://feed.example/api/v2/package"},
		{name: "source with path used as-is", source: "http://127.0.0.1:5000/push", want: "http://127.0.0.1:5000/push"},
		{name: "no service endpoint", source: "https://feed.example/", noServiceEndpoint: true, want: "https://feed.example/"},
		{name: "not http", source: "s3://bucket/prefix", wantErr: true},
		{name: "missing host", source: "https:///path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ServiceEndpoint(tt.source, tt.noServiceEndpoint)
			if tt.wantErr {
				var srcErr *SourceError
				assert.ErrorAs(t, err, &srcErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponse_StatusLine_PrefersFeedReason(t *testing.T) {
	resp := Response{StatusCode: 409, Status: "409 Package already exists"}
	assert.Equal(t, "409 (Package already exists)", resp.StatusLine())

	resp = Response{StatusCode: 599}
	assert.Equal(t, "599", resp.StatusLine())
}

func TestNewClient_RejectsNilHTTPClient(t *testing.T) {
	_, err := NewClient(WithHTTPClient(nil))
	assert.Error(t, err)
}

func TestClient_Upload_ServiceEndpointAppended(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "x")
	_, err := newTestClient(t).Upload(context.Background(), Request{ArtifactPath: artifact, Source: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/package", gotPath)
}
