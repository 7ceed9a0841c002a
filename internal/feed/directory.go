package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Directory pushes to a feed that is a plain folder on disk. A file with
// the same name already in the folder is answered like a feed conflict.
type Directory struct{}

// Upload copies the artifact into the folder named by req.Source.
func (Directory) Upload(ctx context.Context, req Request) (Response, error) {
	root, err := LocalPath(req.Source)
	if err != nil {
		return Response{}, err
	}

	ctx, cancel := WithTimeout(ctx, req.Timeout)
	defer cancel()

	started := time.Now()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Response{}, fmt.Errorf("create feed folder: %w", err)
	}

	src, err := os.Open(req.ArtifactPath)
	if err != nil {
		return Response{}, fmt.Errorf("open artifact: %w", err)
	}
	defer src.Close()

	dest := filepath.Join(root, filepath.Base(req.ArtifactPath))
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		slog.DebugContext(ctx, "package already in folder feed", "path", dest)
		return statusResponse(http.StatusConflict, dest, started), nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("create package file: %w", err)
	}

	_, err = io.Copy(out, &contextReader{ctx: ctx, r: src})
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// never leave a partial package behind
		_ = os.Remove(dest)
		return Response{}, CheckTimeout(ctx, req.Timeout, err)
	}

	return statusResponse(http.StatusCreated, dest, started), nil
}

// LocalPath turns a folder source (plain path or file:// URL) into a path.
func LocalPath(source string) (string, error) {
	if source == "" {
		return "", &SourceError{Source: source, Reason: "empty folder path"}
	}
	if u, err := url.Parse(source); err == nil && u.Scheme == "file" {
		if u.Path == "" {
			return "", &SourceError{Source: source, Reason: "empty folder path"}
		}
		return filepath.FromSlash(u.Path), nil
	}
	return source, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
