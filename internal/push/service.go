package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ThomasSmeets/NuGet.Client/internal/feed"
	"github.com/ThomasSmeets/NuGet.Client/internal/model"
	"github.com/ThomasSmeets/NuGet.Client/internal/policy"
	"github.com/ThomasSmeets/NuGet.Client/internal/report"
)

const (
	pushedMessage   = "Your package was pushed."
	skippingMessage = "Skipping existing package."
)

// SourceProvider resolves feeds and stored credentials. It is read-only.
type SourceProvider interface {
	// ResolveSource maps a source name or URL to a feed URL. An empty
	// argument selects the default push source; an empty result means none
	// is configured.
	ResolveSource(source string) (string, error)
	// SymbolSource returns the symbol feed paired with a package feed, or "".
	SymbolSource(source string) string
	// APIKey returns the stored key for a feed, or "".
	APIKey(source string) string
}

// Console receives the user-facing status lines. Detail lines are only
// shown at detailed verbosity.
type Console interface {
	Info(msg string)
	Detail(msg string)
	Warn(msg string)
}

// Service pushes artifacts through one uploader.
type Service struct {
	uploader feed.Uploader
	sources  SourceProvider
	console  Console
	session  model.SessionID
}

// NewService creates a push service. A nil SourceProvider uses sources and
// keys exactly as given in the request.
func NewService(uploader feed.Uploader, sources SourceProvider, console Console, session model.SessionID) *Service {
	if sources == nil {
		sources = requestSources{}
	}
	return &Service{uploader: uploader, sources: sources, console: console, session: session}
}

type requestSources struct{}

func (requestSources) ResolveSource(source string) (string, error) { return source, nil }
func (requestSources) SymbolSource(string) string                  { return "" }
func (requestSources) APIKey(string) string                        { return "" }

// target is a request with sources and keys resolved.
type target struct {
	source       string
	apiKey       string
	symbolSource string
	symbolAPIKey string
}

func (s *Service) resolve(req Request) (target, error) {
	if err := s.session.Validate(); err != nil {
		return target{}, err
	}

	source, err := s.sources.ResolveSource(req.Source)
	if err != nil {
		return target{}, err
	}
	if source == "" {
		return target{}, ErrNoSource
	}

	t := target{source: source}
	t.apiKey = ResolveAPIKey(req.APIKey, req.PositionalAPIKey)
	if t.apiKey == "" {
		t.apiKey = s.sources.APIKey(source)
	}

	if req.NoSymbols {
		return t, nil
	}
	if req.SymbolSource != "" {
		if t.symbolSource, err = s.sources.ResolveSource(req.SymbolSource); err != nil {
			return target{}, err
		}
	} else {
		t.symbolSource = s.sources.SymbolSource(source)
	}
	if t.symbolSource == "" {
		return t, nil
	}

	switch {
	case req.SymbolAPIKey != "":
		t.symbolAPIKey = req.SymbolAPIKey
	case s.sources.APIKey(t.symbolSource) != "":
		t.symbolAPIKey = s.sources.APIKey(t.symbolSource)
	default:
		t.symbolAPIKey = t.apiKey
	}
	return t, nil
}

// Push is the single-artifact entry point: req.PackagePath is taken
// literally, never expanded as a glob. It pushes the package, then its
// symbols. Phase results go to run; the returned error is this artifact's
// fatal error, if any. The CLI goes through PushAll.
func (s *Service) Push(ctx context.Context, req Request, run *report.Run) error {
	t, err := s.resolve(req)
	if err != nil {
		return err
	}
	return s.pushArtifact(ctx, req, t, model.Artifact{Path: req.PackagePath}, run)
}

// PushAll expands req.PackagePath and pushes every matching package, at
// most parallel at a time. Once an artifact fails fatally no further
// artifacts are started. The returned error combines every fatal error;
// resolution errors are returned before any upload.
func (s *Service) PushAll(ctx context.Context, req Request, parallel int) (*report.Run, error) {
	run := report.NewRun()

	t, err := s.resolve(req)
	if err != nil {
		return run, err
	}

	artifacts, err := ExpandArtifacts(req.PackagePath)
	if err != nil {
		run.Record(report.PhaseResult{
			Artifact: req.PackagePath,
			Phase:    report.PhasePackage,
			Source:   t.source,
			Outcome:  KindUnexpected.String(),
			Err:      &Error{Kind: KindUnexpected, Artifact: req.PackagePath, Source: t.source, Message: err.Error(), Cause: err},
		})
		return run, run.Err()
	}

	if parallel < 1 {
		parallel = 1
	}
	var (
		g      errgroup.Group
		failed atomic.Bool
	)
	g.SetLimit(parallel)
	for _, a := range artifacts {
		a := a
		g.Go(func() error {
			if failed.Load() {
				slog.DebugContext(ctx, "artifact skipped after earlier failure", "artifact", a.Name())
				return nil
			}
			if err := s.pushArtifact(ctx, req, t, a, run); err != nil {
				failed.Store(true)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	return run, run.Err()
}

func (s *Service) pushArtifact(ctx context.Context, req Request, t target, artifact model.Artifact, run *report.Run) error {
	err := s.pushPhase(ctx, req, run, phase{
		name:     report.PhasePackage,
		artifact: artifact.Path,
		source:   t.source,
		apiKey:   t.apiKey,
	})
	if err != nil {
		return err
	}

	if req.NoSymbols || t.symbolSource == "" {
		return nil
	}
	symbols, ok := artifact.SymbolsPath()
	if !ok {
		slog.DebugContext(ctx, "no symbol package found", "artifact", artifact.Name())
		return nil
	}

	return s.pushPhase(ctx, req, run, phase{
		name:     report.PhaseSymbols,
		artifact: symbols,
		source:   t.symbolSource,
		apiKey:   t.symbolAPIKey,
	})
}

type phase struct {
	name     report.Phase
	artifact string
	source   string
	apiKey   string
}

// pushPhase makes exactly one upload attempt and applies the policy to its
// outcome.
func (s *Service) pushPhase(ctx context.Context, req Request, run *report.Run, p phase) error {
	name := model.Artifact{Path: p.artifact}.Name()
	s.info(run, fmt.Sprintf("Pushing %s to '%s'...", name, p.source))

	resp, err := s.uploader.Upload(ctx, feed.Request{
		ArtifactPath:      p.artifact,
		Source:            p.source,
		APIKey:            p.apiKey,
		Timeout:           req.timeout(),
		DisableBuffering:  req.DisableBuffering,
		NoServiceEndpoint: req.NoServiceEndpoint,
		SessionID:         s.session,
	})
	outcome := Classify(resp, err)
	if resp.StatusCode != 0 {
		s.detail(fmt.Sprintf("  %s %s %dms", resp.Reason(), resp.Endpoint, resp.Elapsed.Milliseconds()))
	}

	slog.DebugContext(ctx, "upload classified",
		"artifact", name,
		"phase", p.name,
		"source", p.source,
		"outcome", outcome.Kind.String(),
		"status", outcome.StatusCode,
		"elapsed", resp.Elapsed,
		"session_id", s.session,
	)

	result := report.PhaseResult{
		Artifact: p.artifact,
		Phase:    p.name,
		Source:   p.source,
		Outcome:  outcome.Kind.String(),
	}

	switch {
	case outcome.Kind == Success:
		s.info(run, pushedMessage)
		slog.InfoContext(ctx, "package pushed", "artifact", name, "phase", p.name, "source", p.source, "session_id", s.session)
	case outcome.Kind == Duplicate && req.Tolerated.Has(policy.Duplicate):
		result.Tolerated = true
		s.warn(run, fmt.Sprintf("%s already exists at '%s' (%s).", name, p.source, outcome.StatusLine))
		s.info(run, skippingMessage)
	case outcome.Kind == Invalid && req.Tolerated.Has(policy.Invalid):
		result.Tolerated = true
		s.warn(run, fmt.Sprintf("%s was rejected by '%s' (%s). Continuing.", name, p.source, outcome.StatusLine))
	default:
		fatal := outcome.fatalError(p.artifact, p.source)
		result.Err = fatal
		run.Record(result)
		slog.WarnContext(ctx, "push failed", "artifact", name, "phase", p.name, "kind", fatal.Kind.String(), "error", fatal.Message)
		return fatal
	}

	run.Record(result)
	return nil
}

func (s *Service) info(run *report.Run, msg string) {
	run.AddMessage(msg)
	if s.console != nil {
		s.console.Info(msg)
	}
}

func (s *Service) detail(msg string) {
	if s.console != nil {
		s.console.Detail(msg)
	}
}

func (s *Service) warn(run *report.Run, msg string) {
	run.AddMessage("WARNING: " + msg)
	if s.console != nil {
		s.console.Warn(msg)
	}
}
