package feed

import (
	"context"
	"net/url"
	"strings"
)

// Mux routes each upload to the uploader registered for the source's
// scheme. Sources without a scheme are folder feeds.
type Mux struct {
	byScheme map[string]Uploader
	local    Uploader
}

// NewMux serves http and https sources with httpUploader and folder
// sources with Directory.
func NewMux(httpUploader Uploader) *Mux {
	m := &Mux{
		byScheme: make(map[string]Uploader),
		local:    Directory{},
	}
	m.Handle("http", httpUploader)
	m.Handle("https", httpUploader)
	m.Handle("file", m.local)
	return m
}

// Handle registers u for sources using scheme.
func (m *Mux) Handle(scheme string, u Uploader) {
	m.byScheme[strings.ToLower(scheme)] = u
}

// Upload implements Uploader.
func (m *Mux) Upload(ctx context.Context, req Request) (Response, error) {
	u, err := m.route(req.Source)
	if err != nil {
		return Response{}, err
	}
	return u.Upload(ctx, req)
}

func (m *Mux) route(source string) (Uploader, error) {
	u, err := url.Parse(source)
	// single letter schemes are Windows drive letters
	if err != nil || len(u.Scheme) < 2 {
		return m.local, nil
	}
	if up, ok := m.byScheme[strings.ToLower(u.Scheme)]; ok {
		return up, nil
	}
	return nil, &SourceError{Source: source, Reason: "unsupported scheme " + u.Scheme}
}
