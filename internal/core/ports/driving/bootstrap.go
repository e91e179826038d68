package driving

import (
	"context"

	"github.com/monetci/monetup/internal/core/domain"
)

// StepObserver receives progress callbacks while a run executes. The
// CLI plugs in either a plain-text or a TTY progress implementation.
type StepObserver interface {
	// StepStarted is called immediately before a step executes.
	StepStarted(step domain.Step)

	// StepFinished is called after a step finished; err is nil on
	// success.
	StepFinished(step domain.Step, err error)

	// StepSkipped is called for steps excluded from the run.
	StepSkipped(step domain.Step, reason string)
}

// BootstrapOptions select and shape the steps of one run.
type BootstrapOptions struct {
	// Resume skips steps the most recent interrupted run completed.
	Resume bool

	// Only restricts the run to the named steps.
	Only []domain.StepID

	// Skip excludes the named steps.
	Skip []domain.StepID

	// Observer receives progress callbacks. May be nil.
	Observer StepObserver
}

// Bootstrapper is the primary port of the tool: it executes the
// bootstrap pipeline, tears it down, and reports past runs.
type Bootstrapper interface {
	// Plan returns the steps a run with the given options would execute,
	// in order. It validates the Only and Skip selections.
	Plan(opts BootstrapOptions) ([]domain.Step, error)

	// Bootstrap runs the configured steps in order, aborting at the
	// first failure. The returned run carries per-step outcomes even
	// when an error is returned.
	Bootstrap(ctx context.Context, opts BootstrapOptions) (*domain.Run, error)

	// Teardown stops the daemon and removes the farm directory.
	Teardown(ctx context.Context) error

	// LastRun returns the most recent journaled run.
	LastRun(ctx context.Context) (*domain.Run, error)
}
