package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThomasSmeets/NuGet.Client/internal/feed"
)

type stubStore struct {
	objects map[string][]byte
	sizes   map[string]int64
	bucket  string
	err     error
	block   bool
}

func (s *stubStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.objects[key]
	return ok, nil
}

func (s *stubStore) Put(ctx context.Context, key string, data io.Reader, size int64) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = b
	s.sizes[key] = size
	return nil
}

func newStubFeed(store *stubStore) *Feed {
	f := NewFeed(MinIOConfig{Endpoint: "localhost:9000", AccessKey: "minio", SecretKey: "minio123"})
	f.connect = func(ctx context.Context, cfg MinIOConfig) (objectStore, error) {
		store.bucket = cfg.Bucket
		return store, nil
	}
	return f
}

func newStubStore() *stubStore {
	return &stubStore{objects: map[string][]byte{}, sizes: map[string]int64{}}
}

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFeed_Upload_StoresThenConflicts(t *testing.T) {
	store := newStubStore()
	f := newStubFeed(store)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "hello")

	resp, err := f.Upload(context.Background(), feed.Request{ArtifactPath: artifact, Source: "s3://packages/nightly"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "s3://packages/nightly/PackageA.1.1.0.nupkg", resp.Endpoint)
	assert.Equal(t, "packages", store.bucket)
	assert.Equal(t, "hello", string(store.objects["nightly/PackageA.1.1.0.nupkg"]))
	assert.Equal(t, int64(5), store.sizes["nightly/PackageA.1.1.0.nupkg"])

	resp, err = f.Upload(context.Background(), feed.Request{ArtifactPath: artifact, Source: "s3://packages/nightly"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "409 (Conflict)", resp.StatusLine())
}

func TestFeed_Upload_DisableBufferingStreamsUnknownSize(t *testing.T) {
	store := newStubStore()
	f := newStubFeed(store)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "hello")

	_, err := f.Upload(context.Background(), feed.Request{ArtifactPath: artifact, Source: "s3://packages", DisableBuffering: true})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), store.sizes["PackageA.1.1.0.nupkg"])
}

func TestFeed_Upload_Timeout(t *testing.T) {
	store := newStubStore()
	store.block = true
	f := newStubFeed(store)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "hello")

	_, err := f.Upload(context.Background(), feed.Request{
		ArtifactPath: artifact,
		Source:       "s3://packages",
		Timeout:      50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrTimeout)
	assert.Empty(t, store.objects)
}

func TestFeed_Upload_StoreError(t *testing.T) {
	store := newStubStore()
	store.err = errors.New("access denied")
	f := newStubFeed(store)
	artifact := writeArtifact(t, "PackageA.1.1.0.nupkg", "hello")

	_, err := f.Upload(context.Background(), feed.Request{ArtifactPath: artifact, Source: "s3://packages"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.NotErrorIs(t, err, feed.ErrTimeout)
}

func TestFeed_Upload_NotConfigured(t *testing.T) {
	f := NewFeed(MinIOConfig{})
	_, err := f.Upload(context.Background(), feed.Request{ArtifactPath: "a.nupkg", Source: "s3://packages"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
