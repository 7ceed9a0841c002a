package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ThomasSmeets/NuGet.Client/internal/feed"
)

const (
	// Scheme selects the object store feed, as in s3://packages/nightly.
	Scheme             = "s3"
	packageContentType = "application/octet-stream"
)

// ErrNotConfigured is returned when an s3:// source is used without an endpoint.
var ErrNotConfigured = errors.New("storage: object store endpoint is not configured")

// objectStore is the slice of MinIOClient the feed needs.
type objectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data io.Reader, size int64) error
}

// Feed pushes artifacts to s3://<bucket>/<prefix> sources. An object
// already stored under the artifact's key is answered as a conflict.
type Feed struct {
	cfg     MinIOConfig
	connect func(ctx context.Context, cfg MinIOConfig) (objectStore, error)
}

// NewFeed creates an object store feed. cfg.Bucket is ignored; each source
// names its own bucket.
func NewFeed(cfg MinIOConfig) *Feed {
	return &Feed{
		cfg: cfg,
		connect: func(ctx context.Context, cfg MinIOConfig) (objectStore, error) {
			return NewMinIOClient(ctx, cfg)
		},
	}
}

// Upload implements feed.Uploader.
func (f *Feed) Upload(ctx context.Context, req feed.Request) (feed.Response, error) {
	if f.cfg.Endpoint == "" {
		return feed.Response{}, ErrNotConfigured
	}
	bucket, prefix, err := ParseSource(req.Source)
	if err != nil {
		return feed.Response{}, err
	}

	ctx, cancel := feed.WithTimeout(ctx, req.Timeout)
	defer cancel()

	started := time.Now()
	cfg := f.cfg
	cfg.Bucket = bucket
	store, err := f.connect(ctx, cfg)
	if err != nil {
		return feed.Response{}, feed.CheckTimeout(ctx, req.Timeout, err)
	}

	key := ObjectKey{Prefix: prefix, FileName: filepath.Base(req.ArtifactPath)}.Key()
	endpoint := fmt.Sprintf("%s://%s/%s", Scheme, bucket, key)

	exists, err := store.Exists(ctx, key)
	if err != nil {
		return feed.Response{}, feed.CheckTimeout(ctx, req.Timeout, err)
	}
	if exists {
		slog.DebugContext(ctx, "package already in object store", "bucket", bucket, "key", key)
		return response(http.StatusConflict, endpoint, started), nil
	}

	file, err := os.Open(req.ArtifactPath)
	if err != nil {
		return feed.Response{}, fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	size := int64(-1)
	if !req.DisableBuffering {
		info, err := file.Stat()
		if err != nil {
			return feed.Response{}, fmt.Errorf("stat artifact: %w", err)
		}
		size = info.Size()
	}

	if err := store.Put(ctx, key, file, size); err != nil {
		return feed.Response{}, feed.CheckTimeout(ctx, req.Timeout, err)
	}

	slog.InfoContext(ctx, "package stored", "bucket", bucket, "key", key, "session_id", req.SessionID)
	return response(http.StatusCreated, endpoint, started), nil
}

func response(code int, endpoint string, started time.Time) feed.Response {
	return feed.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Endpoint:   endpoint,
		Elapsed:    time.Since(started),
	}
}
