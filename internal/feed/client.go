package feed

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	servicePath           = "api/v2/package"
	packageField          = "package"
	apiKeyHeader          = "X-NuGet-ApiKey"
	protocolVersionHeader = "X-NuGet-Protocol-Version"
	protocolVersion       = "4.1.0"
	sessionIDHeader       = "X-NuGet-Session-Id"
)

// Client pushes packages to HTTP feeds using the V2 push protocol:
// a multipart PUT to the feed's package endpoint.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a feed client. The underlying http.Client has no
// Timeout; each upload is bounded by Request.Timeout instead, so long
// timeouts are never capped by a client default.
func NewClient(opts ...Option) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		userAgent:  BuildUserAgent(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Upload sends the artifact and returns whatever status the feed answered.
// Errors are returned only when no answer was received.
func (c *Client) Upload(ctx context.Context, req Request) (Response, error) {
	endpoint, err := ServiceEndpoint(req.Source, req.NoServiceEndpoint)
	if err != nil {
		return Response{}, err
	}

	file, err := os.Open(req.ArtifactPath)
	if err != nil {
		return Response{}, fmt.Errorf("open artifact: %w", err)
	}

	ctx, cancel := WithTimeout(ctx, req.Timeout)
	defer cancel()

	var (
		body        io.Reader
		contentType string
	)
	if req.DisableBuffering {
		// the writer goroutine owns the file from here on
		body, contentType = streamedBody(file)
	} else {
		body, contentType, err = bufferedBody(file)
		file.Close()
		if err != nil {
			return Response{}, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok {
			closer.Close()
		}
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(protocolVersionHeader, protocolVersion)
	if req.SessionID != "" {
		httpReq.Header.Set(sessionIDHeader, req.SessionID.String())
	}
	if req.APIKey != "" {
		httpReq.Header.Set(apiKeyHeader, req.APIKey)
	}

	slog.DebugContext(ctx, "pushing artifact", "method", http.MethodPut, "endpoint", endpoint,
		"buffered", !req.DisableBuffering, "session_id", req.SessionID)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, CheckTimeout(ctx, req.Timeout, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	elapsed := time.Since(started)
	slog.DebugContext(ctx, "feed responded", "endpoint", endpoint, "status", resp.Status, "elapsed", elapsed)

	return Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Endpoint:   endpoint,
		Elapsed:    elapsed,
	}, nil
}

// ServiceEndpoint returns the URL a package is PUT to. The V2 package path
// is appended only to sources without a path of their own, and never when
// noServiceEndpoint is set.
func ServiceEndpoint(source string, noServiceEndpoint bool) (string, error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", &SourceError{Source: source, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &SourceError{Source: source, Reason: "not an http(s) feed"}
	}
	if u.Host == "" {
		return "", &SourceError{Source: source, Reason: "missing host"}
	}
	if noServiceEndpoint {
		return u.String(), nil
	}
	if strings.Trim(u.Path, "/") == "" {
		u.Path = "/" + servicePath
	}
	return u.String(), nil
}

// bufferedBody builds the whole multipart body in memory so the request
// carries a Content-Length.
func bufferedBody(file *os.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(packageField, filepath.Base(file.Name()))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read artifact: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// streamedBody writes the multipart body through a pipe, so the request is
// sent chunked without holding the artifact in memory. The file is closed
// once it has been copied or the transport stops reading.
func streamedBody(file *os.File) (io.Reader, string) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)
	go func() {
		defer file.Close()
		part, err := w.CreateFormFile(packageField, filepath.Base(file.Name()))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = w.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, w.FormDataContentType()
}
