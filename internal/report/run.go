// Package report aggregates per-phase push outcomes into the run's exit
// status and writes the human-readable console lines.
package report

import (
	"sync"

	"go.uber.org/multierr"

	"github.com/ThomasSmeets/NuGet.Client/internal/exitcode"
)

// Phase names one upload stage of an artifact push.
type Phase string

const (
	PhasePackage Phase = "package"
	PhaseSymbols Phase = "symbols"
)

// PhaseResult is the recorded result of one phase.
type PhaseResult struct {
	Artifact string
	Phase    Phase
	Source   string
	// Outcome is the classifier's label, e.g. "success" or "duplicate".
	Outcome   string
	Tolerated bool
	// Err is set only for fatal phases.
	Err error
}

// Fatal reports whether the phase fails the run.
func (r PhaseResult) Fatal() bool {
	return r.Err != nil
}

// Run accumulates phase results and messages for one invocation.
// It is safe for concurrent use.
type Run struct {
	mu       sync.Mutex
	results  []PhaseResult
	messages []string
}

func NewRun() *Run {
	return &Run{}
}

// Record appends a phase result.
func (r *Run) Record(result PhaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// AddMessage appends a console line to the run's transcript.
func (r *Run) AddMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Succeeded reports whether no recorded phase was fatal.
func (r *Run) Succeeded() bool {
	return r.FirstFatal() == nil
}

// FirstFatal returns the error of the first fatal phase recorded, or nil.
func (r *Run) FirstFatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Fatal() {
			return res.Err
		}
	}
	return nil
}

// Err combines every fatal phase error in recording order.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	for _, res := range r.results {
		if res.Fatal() {
			err = multierr.Append(err, res.Err)
		}
	}
	return err
}

// Results returns a copy of the recorded phase results.
func (r *Run) Results() []PhaseResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PhaseResult, len(r.results))
	copy(out, r.results)
	return out
}

// Messages returns a copy of the accumulated console lines.
func (r *Run) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// ExitCode maps the aggregate to a process exit code.
func (r *Run) ExitCode() int {
	if r.Succeeded() {
		return exitcode.Success
	}
	return exitcode.PushFailed
}
