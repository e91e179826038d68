package driving

import (
	"context"

	"github.com/monetci/monetup/internal/core/domain"
)

// CheckResult is the outcome of one verification check.
type CheckResult struct {
	// Name identifies the check: daemon, database or deps.
	Name string

	// Detail is human-readable supporting output (status line, module
	// list) for passing checks.
	Detail string

	// Err is nil when the check passed.
	Err error
}

// VerifyReport aggregates the verification checks of one invocation.
type VerifyReport struct {
	Checks []CheckResult
}

// OK reports whether every check passed.
func (r *VerifyReport) OK() bool {
	for _, c := range r.Checks {
		if c.Err != nil {
			return false
		}
	}
	return true
}

// Verifier runs the post-bootstrap smoke checks: daemon reachable on
// the control port, test database released and accepting clients, and
// test dependencies importable.
type Verifier interface {
	Verify(ctx context.Context, params domain.VerifyParams) (*VerifyReport, error)
}
