package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/core/ports/driving"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure VerifyService implements the interface.
var _ driving.Verifier = (*VerifyService)(nil)

// VerifyService runs the post-bootstrap smoke checks concurrently:
// daemon reachable on the control port, test database accepting SQL
// clients, and every test requirement importable.
type VerifyService struct {
	prober driven.Prober
	deps   driven.DepInstaller
}

// NewVerifyService creates a verify service.
func NewVerifyService(prober driven.Prober, deps driven.DepInstaller) *VerifyService {
	return &VerifyService{prober: prober, deps: deps}
}

// Verify runs all checks and reports each outcome. A non-nil error
// wrapping domain.ErrVerifyFailed is returned when any check failed;
// the report is populated either way.
func (s *VerifyService) Verify(ctx context.Context, params domain.VerifyParams) (*driving.VerifyReport, error) {
	checks := []struct {
		name string
		run  func(ctx context.Context) (string, error)
	}{
		{"daemon", func(ctx context.Context) (string, error) {
			return s.checkDaemon(ctx, params)
		}},
		{"database", func(ctx context.Context) (string, error) {
			return s.checkDatabase(ctx, params)
		}},
		{"deps", func(ctx context.Context) (string, error) {
			return s.checkDeps(ctx, params)
		}},
	}

	report := &driving.VerifyReport{
		Checks: make([]driving.CheckResult, len(checks)),
	}

	// A plain group: one failing check must not cancel its siblings,
	// every check reports its own outcome.
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			detail, err := check.run(ctx)
			report.Checks[i] = driving.CheckResult{
				Name:   check.name,
				Detail: detail,
				Err:    err,
			}
			return nil
		})
	}
	// Checks never return errors through the group, outcomes live in
	// the report.
	_ = g.Wait()

	if !report.OK() {
		return report, domain.ErrVerifyFailed
	}
	return report, nil
}

// checkDaemon asks merovingian for the database status over the
// control port.
func (s *VerifyService) checkDaemon(ctx context.Context, params domain.VerifyParams) (string, error) {
	status, err := s.prober.PingControl(ctx, params)
	if err != nil {
		return "", fmt.Errorf("control port on %s:%d: %w", params.Hostname, params.Port, err)
	}
	logger.Debug("daemon status: %s", status)
	return status, nil
}

// checkDatabase logs in over the SQL language and runs a probe query,
// proving the database was released from maintenance mode.
func (s *VerifyService) checkDatabase(ctx context.Context, params domain.VerifyParams) (string, error) {
	if err := s.prober.ProbeSQL(ctx, params); err != nil {
		return "", fmt.Errorf("database %s: %w", params.Database, err)
	}
	return fmt.Sprintf("database %s accepts connections", params.Database), nil
}

// checkDeps verifies every requirement from the manifest imports.
func (s *VerifyService) checkDeps(ctx context.Context, params domain.VerifyParams) (string, error) {
	modules, err := s.deps.Modules(params.Requirements)
	if err != nil {
		return "", err
	}

	var failed []string
	for _, module := range modules {
		if err := s.deps.Importable(ctx, params.Python, module); err != nil {
			logger.Debug("import check: %v", err)
			failed = append(failed, module)
		}
	}
	if len(failed) > 0 {
		return "", fmt.Errorf("modules not importable: %s", strings.Join(failed, ", "))
	}
	return fmt.Sprintf("%d modules importable", len(modules)), nil
}
