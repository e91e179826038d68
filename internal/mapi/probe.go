package mapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
)

// Ensure Probe implements the interface.
var _ driven.Prober = (*Probe)(nil)

// defaultProbeTimeout bounds a single probe round trip when the caller
// supplies no deadline.
const defaultProbeTimeout = 10 * time.Second

// Probe implements the driven.Prober port on top of the MAPI client.
type Probe struct {
	// Timeout bounds each probe when the context has no deadline.
	Timeout time.Duration
}

// NewProbe creates a Probe with the default timeout.
func NewProbe() *Probe {
	return &Probe{Timeout: defaultProbeTimeout}
}

// PingControl connects to the control port and asks merovingian for
// the status of the database. The returned string is the raw status
// payload.
func (p *Probe) PingControl(ctx context.Context, params domain.VerifyParams) (string, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	ctl, err := DialControl(ctx, params.Hostname, params.Port, params.Passphrase)
	if err != nil {
		return "", err
	}
	defer ctl.Close()

	status, err := ctl.Status(params.Database)
	if err != nil {
		return "", fmt.Errorf("status of %s: %w", params.Database, err)
	}
	return status, nil
}

// ProbeSQL logs in to the database over the SQL language and runs a
// trivial query, verifying the database is released and serving.
func (p *Probe) ProbeSQL(ctx context.Context, params domain.VerifyParams) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	conn, err := Dial(ctx, params.Hostname, params.Port, Config{
		Database: params.Database,
		Username: params.Username,
		Password: params.Password,
		Language: "sql",
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	// SQL statements travel with an "s" prefix in the MAPI language.
	resp, err := conn.Cmd("sSELECT 1;")
	if err != nil {
		return fmt.Errorf("probe query: %w", err)
	}
	if !strings.HasPrefix(resp, "&") {
		return fmt.Errorf("%w: probe query returned no result header: %q", ErrProgramming, resp)
	}
	return nil
}

func (p *Probe) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
