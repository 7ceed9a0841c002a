// Package feedtest provides an in-process package feed for tests.
package feedtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// Server is an in-memory feed accepting V2 pushes. Packages are keyed by
// the uploaded file name; pushing a name twice answers 409 Conflict and
// keeps the first copy.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	packages map[string][]byte
	requests []*http.Request
	status   int
	delay    time.Duration
}

type Option func(*Server)

// WithStatus makes every push answer code without storing anything.
func WithStatus(code int) Option {
	return func(s *Server) {
		s.status = code
	}
}

// WithDelay holds every push for d before answering. A push whose client
// gives up first is not stored.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

// NewServer starts a feed that is closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{packages: make(map[string][]byte)}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// RegisterRoutes attaches the push handler to the provided mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("PUT /", s.handlePush)
}

// PushURL is a source URL with a path, so clients use it as-is.
func (s *Server) PushURL() string {
	return s.URL + "/push"
}

// Package returns the stored bytes for a file name.
func (s *Server) Package(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.packages[name]
	return data, ok
}

// Len returns how many packages are stored.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packages)
}

// Requests returns every push received, in arrival order.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// handlePush stores the "package" part of a multipart PUT.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	s.mu.Unlock()

	name, data, err := readPackage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.packages[name]; exists {
		w.WriteHeader(http.StatusConflict)
		return
	}
	s.packages[name] = data
	w.WriteHeader(http.StatusCreated)
}

func readPackage(r *http.Request) (string, []byte, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return "", nil, err
	}
	for {
		part, err := reader.NextPart()
		if err != nil {
			return "", nil, err
		}
		if part.FormName() != "package" {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return "", nil, err
		}
		return part.FileName(), data, nil
	}
}
