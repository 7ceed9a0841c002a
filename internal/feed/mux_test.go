package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	name  string
	calls []Request
}

func (s *stubUploader) Upload(_ context.Context, req Request) (Response, error) {
	s.calls = append(s.calls, req)
	return Response{StatusCode: 201, Status: "201 Created"}, nil
}

func TestMux_Routes(t *testing.T) {
	web := &stubUploader{name: "http"}
	objects := &stubUploader{name: "s3"}
	m := NewMux(web)
	m.Handle("S3", objects)

	tests := []struct {
		source string
		want   Uploader
	}{
		{source: "https://api.nuget.org/v3/index.json", want: web},
		{source: "HTTP://localhost:5000/push", want: web},
		{source: "s3://packages/nightly", want: objects},
		{source: "/srv/feed", want: Directory{}},
		{source: `C:\feeds\local`, want: Directory{}},
		{source: "file:///srv/feed", want: Directory{}},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := m.route(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMux_UnsupportedScheme(t *testing.T) {
	m := NewMux(&stubUploader{})
	_, err := m.Upload(context.Background(), Request{Source: "ftp://feed.example/packages"})
	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "ftp://feed.example/packages", srcErr.Source)
}

func TestMux_Upload_Delegates(t *testing.T) {
	web := &stubUploader{}
	m := NewMux(web)
	resp, err := m.Upload(context.Background(), Request{Source: "https://feed.example", ArtifactPath: "a.nupkg"})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	require.Len(t, web.calls, 1)
	assert.Equal(t, "a.nupkg", web.calls[0].ArtifactPath)
}
