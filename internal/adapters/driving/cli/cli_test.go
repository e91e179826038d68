package cli

import (
	"bytes"
	"context"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driving"
)

// fakeBootstrapper implements driving.Bootstrapper for command tests.
type fakeBootstrapper struct {
	run          *domain.Run
	bootstrapErr error
	teardownErr  error
	lastRunErr   error
	gotOpts      driving.BootstrapOptions
	teardowns    int
}

func (f *fakeBootstrapper) Plan(opts driving.BootstrapOptions) ([]domain.Step, error) {
	var plan []domain.Step
	for _, id := range domain.StepOrder {
		plan = append(plan, domain.Step{ID: id, Description: string(id)})
	}
	return plan, nil
}

func (f *fakeBootstrapper) Bootstrap(_ context.Context, opts driving.BootstrapOptions) (*domain.Run, error) {
	f.gotOpts = opts
	if opts.Observer != nil {
		for _, id := range domain.StepOrder {
			step := domain.Step{ID: id, Description: string(id)}
			opts.Observer.StepStarted(step)
			opts.Observer.StepFinished(step, nil)
		}
	}
	return f.run, f.bootstrapErr
}

func (f *fakeBootstrapper) Teardown(context.Context) error {
	f.teardowns++
	return f.teardownErr
}

func (f *fakeBootstrapper) LastRun(context.Context) (*domain.Run, error) {
	return f.run, f.lastRunErr
}

// fakeVerifier implements driving.Verifier for command tests.
type fakeVerifier struct {
	report *driving.VerifyReport
	err    error
	got    domain.VerifyParams
}

func (f *fakeVerifier) Verify(_ context.Context, params domain.VerifyParams) (*driving.VerifyReport, error) {
	f.got = params
	return f.report, f.err
}

// withServices installs fakes into the package-level service vars and
// returns a buffer capturing command output. Callers must invoke the
// returned restore function.
func withServices(b driving.Bootstrapper, v driving.Verifier) (*bytes.Buffer, func()) {
	origCfg, origB, origV := cfg, bootstrapper, verifier
	cfg = domain.DefaultConfig()
	bootstrapper = b
	verifier = v

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	return buf, func() {
		cfg, bootstrapper, verifier = origCfg, origB, origV
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}
}
