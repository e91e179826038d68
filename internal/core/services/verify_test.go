package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/core/domain"
)

type fakeProber struct {
	status     string
	controlErr error
	sqlErr     error
}

func (f *fakeProber) PingControl(context.Context, domain.VerifyParams) (string, error) {
	return f.status, f.controlErr
}

func (f *fakeProber) ProbeSQL(context.Context, domain.VerifyParams) error {
	return f.sqlErr
}

type fakeDeps struct {
	modules    []string
	modulesErr error
	importErr  map[string]error
	installs   []string
}

func (f *fakeDeps) Install(_ context.Context, manifest string) error {
	f.installs = append(f.installs, manifest)
	return nil
}

func (f *fakeDeps) Modules(string) ([]string, error) {
	return f.modules, f.modulesErr
}

func (f *fakeDeps) Importable(_ context.Context, _, module string) error {
	return f.importErr[module]
}

func verifyParams() domain.VerifyParams {
	return domain.VerifyParams{
		Hostname:     "localhost",
		Port:         50000,
		Database:     "demo",
		Username:     "monetdb",
		Password:     "monetdb",
		Passphrase:   "testdb",
		Requirements: "test/requirements.txt",
	}
}

func TestVerify_AllChecksPass(t *testing.T) {
	prober := &fakeProber{status: "demo running"}
	deps := &fakeDeps{modules: []string{"pymonetdb", "pytest"}}
	svc := NewVerifyService(prober, deps)

	report, err := svc.Verify(context.Background(), verifyParams())
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, report.Checks, 3)

	byName := make(map[string]string)
	for _, c := range report.Checks {
		require.NoError(t, c.Err, c.Name)
		byName[c.Name] = c.Detail
	}
	assert.Equal(t, "demo running", byName["daemon"])
	assert.Contains(t, byName["database"], "demo")
	assert.Contains(t, byName["deps"], "2 modules")
}

func TestVerify_DaemonUnreachable(t *testing.T) {
	prober := &fakeProber{controlErr: errors.New("connection refused")}
	deps := &fakeDeps{modules: []string{"pymonetdb"}}
	svc := NewVerifyService(prober, deps)

	report, err := svc.Verify(context.Background(), verifyParams())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVerifyFailed)
	assert.False(t, report.OK())

	// The other checks still ran.
	for _, c := range report.Checks {
		switch c.Name {
		case "daemon":
			require.Error(t, c.Err)
			assert.Contains(t, c.Err.Error(), "localhost:50000")
		default:
			assert.NoError(t, c.Err, c.Name)
		}
	}
}

func TestVerify_DatabaseNotReleased(t *testing.T) {
	prober := &fakeProber{status: "demo locked", sqlErr: errors.New("database is under maintenance")}
	svc := NewVerifyService(prober, &fakeDeps{})

	report, err := svc.Verify(context.Background(), verifyParams())
	assert.ErrorIs(t, err, domain.ErrVerifyFailed)

	for _, c := range report.Checks {
		if c.Name == "database" {
			require.Error(t, c.Err)
			assert.Contains(t, c.Err.Error(), "maintenance")
		}
	}
}

func TestVerify_MissingModules(t *testing.T) {
	deps := &fakeDeps{
		modules:   []string{"pymonetdb", "pytest", "six"},
		importErr: map[string]error{"pytest": errors.New("no module"), "six": errors.New("no module")},
	}
	svc := NewVerifyService(&fakeProber{}, deps)

	report, err := svc.Verify(context.Background(), verifyParams())
	assert.ErrorIs(t, err, domain.ErrVerifyFailed)

	for _, c := range report.Checks {
		if c.Name == "deps" {
			require.Error(t, c.Err)
			assert.Contains(t, c.Err.Error(), "pytest, six")
		}
	}
}

func TestVerify_UnreadableManifest(t *testing.T) {
	deps := &fakeDeps{modulesErr: errors.New("open: no such file")}
	svc := NewVerifyService(&fakeProber{}, deps)

	_, err := svc.Verify(context.Background(), verifyParams())
	assert.ErrorIs(t, err, domain.ErrVerifyFailed)
}
