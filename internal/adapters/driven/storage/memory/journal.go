// Package memory provides an in-memory RunJournal used in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
)

// Ensure Journal implements the interface.
var _ driven.RunJournal = (*Journal)(nil)

// Journal keeps runs in memory, in insertion order.
type Journal struct {
	mu   sync.Mutex
	runs []*domain.Run
}

// NewJournal creates an empty in-memory journal.
func NewJournal() *Journal {
	return &Journal{}
}

// BeginRun records the start of a run.
func (j *Journal) BeginRun(_ context.Context, id string, startedAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.runs = append(j.runs, &domain.Run{
		ID:        id,
		StartedAt: startedAt,
		Status:    domain.RunRunning,
	})
	return nil
}

// FinishRun records the final status of a run.
func (j *Journal) FinishRun(_ context.Context, id string, status domain.RunStatus, finishedAt time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.find(id)
	if run == nil {
		return fmt.Errorf("finish run %s: %w", id, domain.ErrNotFound)
	}
	run.Status = status
	run.FinishedAt = finishedAt
	return nil
}

// RecordStep upserts the outcome of one step within a run.
func (j *Journal) RecordStep(_ context.Context, runID string, result domain.StepResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	run := j.find(runID)
	if run == nil {
		return fmt.Errorf("record step for run %s: %w", runID, domain.ErrNotFound)
	}
	for i, s := range run.Steps {
		if s.StepID == result.StepID {
			run.Steps[i] = result
			return nil
		}
	}
	run.Steps = append(run.Steps, result)
	return nil
}

// LastRun returns the most recently begun run.
func (j *Journal) LastRun(_ context.Context) (*domain.Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.runs) == 0 {
		return nil, domain.ErrNotFound
	}
	run := *j.runs[len(j.runs)-1]
	run.Steps = append([]domain.StepResult(nil), run.Steps...)
	return &run, nil
}

// Close is a no-op.
func (j *Journal) Close() error {
	return nil
}

// Runs returns copies of all recorded runs, oldest first.
func (j *Journal) Runs() []domain.Run {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]domain.Run, 0, len(j.runs))
	for _, r := range j.runs {
		run := *r
		run.Steps = append([]domain.StepResult(nil), r.Steps...)
		out = append(out, run)
	}
	return out
}

func (j *Journal) find(id string) *domain.Run {
	for _, r := range j.runs {
		if r.ID == id {
			return r
		}
	}
	return nil
}
