package driven

import (
	"context"
	"time"

	"github.com/monetci/monetup/internal/core/domain"
)

// RunJournal persists bootstrap runs and their per-step outcomes. The
// journal backs `monetup status` and --resume.
type RunJournal interface {
	// BeginRun records the start of a run.
	BeginRun(ctx context.Context, id string, startedAt time.Time) error

	// FinishRun records the final status of a run.
	FinishRun(ctx context.Context, id string, status domain.RunStatus, finishedAt time.Time) error

	// RecordStep upserts the outcome of one step within a run.
	RecordStep(ctx context.Context, runID string, result domain.StepResult) error

	// LastRun returns the most recently started run with its steps.
	// Returns domain.ErrNotFound when the journal is empty.
	LastRun(ctx context.Context) (*domain.Run, error)

	// Close releases the underlying storage.
	Close() error
}
