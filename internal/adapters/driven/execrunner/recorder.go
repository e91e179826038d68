package execrunner

import (
	"context"
	"strings"
	"sync"

	"github.com/monetci/monetup/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.CommandRunner = (*Recorder)(nil)

// Recorder is a CommandRunner that records invocations instead of
// executing them. Used by adapter and service tests to assert the
// exact argument shapes sent to the external tools.
type Recorder struct {
	mu    sync.Mutex
	calls []driven.CommandSpec

	// Fail maps a command-line prefix to the error Run and Output
	// return for matching invocations.
	Fail map[string]error

	// Outputs maps a command-line prefix to the bytes Output returns.
	Outputs map[string][]byte
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Run records the invocation and returns a configured failure, if any.
func (r *Recorder) Run(_ context.Context, spec driven.CommandSpec) error {
	r.record(spec)
	return r.failure(spec)
}

// Output records the invocation and returns configured output.
func (r *Recorder) Output(_ context.Context, spec driven.CommandSpec) ([]byte, error) {
	r.record(spec)
	if err := r.failure(spec); err != nil {
		return nil, err
	}
	line := commandLine(spec)
	for prefix, out := range r.Outputs {
		if strings.HasPrefix(line, prefix) {
			return out, nil
		}
	}
	return nil, nil
}

// Calls returns the recorded invocations in order.
func (r *Recorder) Calls() []driven.CommandSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]driven.CommandSpec(nil), r.calls...)
}

// CommandLines returns the recorded invocations as command lines.
func (r *Recorder) CommandLines() []string {
	lines := make([]string, 0, len(r.calls))
	for _, spec := range r.Calls() {
		lines = append(lines, commandLine(spec))
	}
	return lines
}

func (r *Recorder) record(spec driven.CommandSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, spec)
}

func (r *Recorder) failure(spec driven.CommandSpec) error {
	line := commandLine(spec)
	for prefix, err := range r.Fail {
		if strings.HasPrefix(line, prefix) {
			return err
		}
	}
	return nil
}
