package driven

import (
	"context"

	"github.com/monetci/monetup/internal/core/domain"
)

// Prober speaks the MAPI wire protocol to a MonetDB daemon. It backs
// both the farm readiness wait and post-bootstrap verification.
type Prober interface {
	// PingControl connects to the control port, authenticates with the
	// farm passphrase and asks merovingian for the status of database.
	// It returns the raw status line on success.
	PingControl(ctx context.Context, params domain.VerifyParams) (string, error)

	// ProbeSQL logs in to the database over the SQL language and runs
	// a trivial probe query, verifying the database accepts clients.
	ProbeSQL(ctx context.Context, params domain.VerifyParams) error
}
