package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/core/ports/driving"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure BootstrapService implements the interface.
var _ driving.Bootstrapper = (*BootstrapService)(nil)

// stepDescriptions are the progress labels shown per step.
var stepDescriptions = map[domain.StepID]string{
	domain.StepPackages: "Install build packages",
	domain.StepFetch:    "Download and unpack MonetDB source",
	domain.StepBuild:    "Configure, compile and install",
	domain.StepFarm:     "Create farm and start monetdbd",
	domain.StepDatabase: "Create and release test database",
	domain.StepDeps:     "Install test requirements",
}

// BootstrapService executes the bootstrap pipeline. Steps run in a
// fixed order and the run aborts at the first failure.
type BootstrapService struct {
	cfg      *domain.Config
	packages driven.PackageInstaller
	fetcher  driven.SourceFetcher
	builder  driven.Builder
	farm     driven.FarmController
	admin    driven.DatabaseAdmin
	deps     driven.DepInstaller
	journal  driven.RunJournal

	// srcRoot carries the unpacked source directory from the fetch
	// step to the build step within one invocation.
	srcRoot string
}

// NewBootstrapService creates a bootstrap service.
func NewBootstrapService(
	cfg *domain.Config,
	packages driven.PackageInstaller,
	fetcher driven.SourceFetcher,
	builder driven.Builder,
	farm driven.FarmController,
	admin driven.DatabaseAdmin,
	deps driven.DepInstaller,
	journal driven.RunJournal,
) *BootstrapService {
	return &BootstrapService{
		cfg:      cfg,
		packages: packages,
		fetcher:  fetcher,
		builder:  builder,
		farm:     farm,
		admin:    admin,
		deps:     deps,
		journal:  journal,
	}
}

// Plan returns the steps a run with the given options would execute.
func (s *BootstrapService) Plan(opts driving.BootstrapOptions) ([]domain.Step, error) {
	selected, err := selectSteps(opts.Only, opts.Skip)
	if err != nil {
		return nil, err
	}

	var plan []domain.Step
	for _, id := range domain.StepOrder {
		if selected[id] {
			plan = append(plan, domain.Step{ID: id, Description: stepDescriptions[id]})
		}
	}
	return plan, nil
}

// Bootstrap runs the pipeline. The returned run carries per-step
// outcomes even when an error is returned.
func (s *BootstrapService) Bootstrap(ctx context.Context, opts driving.BootstrapOptions) (*domain.Run, error) {
	selected, err := selectSteps(opts.Only, opts.Skip)
	if err != nil {
		return nil, err
	}

	done := make(map[domain.StepID]bool)
	if opts.Resume {
		done, err = s.resumableSteps(ctx)
		if err != nil {
			return nil, err
		}
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    domain.RunRunning,
	}
	if err := s.journal.BeginRun(ctx, run.ID, run.StartedAt); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	logger.Section("bootstrap run " + run.ID)

	var failure error
	for _, id := range domain.StepOrder {
		step := domain.Step{ID: id, Description: stepDescriptions[id]}

		if !selected[id] {
			s.recordStep(ctx, run, domain.StepResult{StepID: id, Status: domain.StepSkipped})
			if opts.Observer != nil {
				opts.Observer.StepSkipped(step, "not selected")
			}
			continue
		}
		if done[id] {
			// Journaled as completed so a later resume of this run
			// still carries the step forward.
			s.recordStep(ctx, run, domain.StepResult{StepID: id, Status: domain.StepCompleted})
			if opts.Observer != nil {
				opts.Observer.StepSkipped(step, "completed in previous run")
			}
			continue
		}

		if opts.Observer != nil {
			opts.Observer.StepStarted(step)
		}
		logger.Info("step %s: %s", id, step.Description)

		result := domain.StepResult{StepID: id, StartedAt: time.Now()}
		err := s.execute(ctx, id)
		result.FinishedAt = time.Now()

		if err != nil {
			result.Status = domain.StepFailed
			result.Error = err.Error()
			failure = fmt.Errorf("%w: %s: %w", domain.ErrStepFailed, id, err)
		} else {
			result.Status = domain.StepCompleted
		}
		s.recordStep(ctx, run, result)
		if opts.Observer != nil {
			opts.Observer.StepFinished(step, err)
		}
		if failure != nil {
			break
		}
	}

	run.FinishedAt = time.Now()
	run.Status = domain.RunCompleted
	if failure != nil {
		run.Status = domain.RunFailed
	}
	if err := s.journal.FinishRun(ctx, run.ID, run.Status, run.FinishedAt); err != nil {
		logger.Warn("journal: %v", err)
	}
	return run, failure
}

// Teardown destroys the test database, stops the daemon and removes
// the farm directory. Database and daemon failures are tolerated so a
// half-built environment can still be cleaned up.
func (s *BootstrapService) Teardown(ctx context.Context) error {
	if err := s.admin.Destroy(ctx, s.cfg.Database.Name); err != nil {
		logger.Warn("destroy database %s: %v", s.cfg.Database.Name, err)
	}
	if err := s.farm.Stop(ctx, s.cfg.Farm.Dir); err != nil {
		logger.Warn("stop daemon: %v", err)
	}
	if err := os.RemoveAll(s.cfg.Farm.Dir); err != nil {
		return fmt.Errorf("remove farm directory: %w", err)
	}
	logger.Info("removed farm directory %s", s.cfg.Farm.Dir)
	return nil
}

// LastRun returns the most recent journaled run.
func (s *BootstrapService) LastRun(ctx context.Context) (*domain.Run, error) {
	return s.journal.LastRun(ctx)
}

// execute dispatches one step to its adapter.
func (s *BootstrapService) execute(ctx context.Context, id domain.StepID) error {
	switch id {
	case domain.StepPackages:
		return s.packages.Install(ctx, s.cfg.Packages.Names)

	case domain.StepFetch:
		archive, err := s.fetcher.Fetch(ctx, s.cfg.Source.URL, s.cfg.Source.Dir)
		if err != nil {
			return err
		}
		srcRoot, err := s.fetcher.Extract(ctx, archive, s.cfg.Source.Dir)
		if err != nil {
			return err
		}
		s.srcRoot = srcRoot
		return nil

	case domain.StepBuild:
		srcRoot, err := s.sourceRoot()
		if err != nil {
			return err
		}
		return s.builder.Build(ctx, srcRoot, s.cfg.Build)

	case domain.StepFarm:
		return s.setupFarm(ctx)

	case domain.StepDatabase:
		if err := s.admin.Create(ctx, s.cfg.Database.Name); err != nil {
			return err
		}
		return s.admin.Release(ctx, s.cfg.Database.Name)

	case domain.StepDeps:
		return s.deps.Install(ctx, s.cfg.Deps.Requirements)

	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownStep, id)
	}
}

// setupFarm creates the farm, configures it and starts the daemon.
func (s *BootstrapService) setupFarm(ctx context.Context) error {
	farmDir := s.cfg.Farm.Dir
	if err := s.farm.Create(ctx, farmDir); err != nil {
		return err
	}
	if s.cfg.Farm.Control {
		if err := s.farm.Set(ctx, farmDir, "control", "yes"); err != nil {
			return err
		}
	}
	if err := s.farm.Set(ctx, farmDir, "passphrase", s.cfg.Farm.Passphrase); err != nil {
		return err
	}
	if s.cfg.Farm.Port != 50000 {
		if err := s.farm.Set(ctx, farmDir, "port", fmt.Sprintf("%d", s.cfg.Farm.Port)); err != nil {
			return err
		}
	}
	if err := s.farm.Start(ctx, farmDir); err != nil {
		return err
	}
	return s.farm.WaitReady(ctx, farmDir, s.cfg.Farm.Port)
}

// sourceRoot returns the unpacked source directory. When the fetch
// step ran in an earlier invocation, the directory is recovered by
// scanning the source workspace for its single extracted tree.
func (s *BootstrapService) sourceRoot() (string, error) {
	if s.srcRoot != "" {
		return s.srcRoot, nil
	}

	entries, err := os.ReadDir(s.cfg.Source.Dir)
	if err != nil {
		return "", fmt.Errorf("scan source workspace: %w", err)
	}

	var root string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if root != "" {
			return "", fmt.Errorf("source workspace %s holds multiple directories, cannot pick the source tree", s.cfg.Source.Dir)
		}
		root = filepath.Join(s.cfg.Source.Dir, e.Name())
	}
	if root == "" {
		return "", fmt.Errorf("no unpacked source tree under %s, run the fetch step first", s.cfg.Source.Dir)
	}
	s.srcRoot = root
	return root, nil
}

// resumableSteps returns the steps the last interrupted run completed.
func (s *BootstrapService) resumableSteps(ctx context.Context) (map[domain.StepID]bool, error) {
	last, err := s.journal.LastRun(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNothingToResume
		}
		return nil, fmt.Errorf("journal: %w", err)
	}
	if last.Status == domain.RunCompleted {
		return nil, domain.ErrNothingToResume
	}

	done := make(map[domain.StepID]bool)
	for _, id := range last.CompletedSteps() {
		done[id] = true
	}
	return done, nil
}

// recordStep journals a step outcome; journal failures must not abort
// the pipeline.
func (s *BootstrapService) recordStep(ctx context.Context, run *domain.Run, result domain.StepResult) {
	run.Steps = append(run.Steps, result)
	if err := s.journal.RecordStep(ctx, run.ID, result); err != nil {
		logger.Warn("journal: %v", err)
	}
}

// selectSteps resolves the Only and Skip selections into the set of
// steps to execute.
func selectSteps(only, skip []domain.StepID) (map[domain.StepID]bool, error) {
	for _, id := range only {
		if !domain.KnownStep(id) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStep, id)
		}
	}
	for _, id := range skip {
		if !domain.KnownStep(id) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownStep, id)
		}
	}

	selected := make(map[domain.StepID]bool)
	if len(only) > 0 {
		for _, id := range only {
			selected[id] = true
		}
	} else {
		for _, id := range domain.StepOrder {
			selected[id] = true
		}
	}
	for _, id := range skip {
		delete(selected, id)
	}
	return selected, nil
}
