package apt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/adapters/driven/execrunner"
)

func TestInstaller_Install(t *testing.T) {
	rec := execrunner.NewRecorder()
	inst := NewInstaller(rec, "")

	err := inst.Install(context.Background(), []string{"gcc", "bison", "libssl-dev"})
	require.NoError(t, err)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "apt-get", calls[0].Name)
	assert.Equal(t, []string{
		"--option=Dpkg::Options::=--force-confold",
		"--option=Dpkg::options::=--force-unsafe-io",
		"--assume-yes",
		"--quiet",
		"install",
		"gcc", "bison", "libssl-dev",
	}, calls[0].Args)
	assert.Contains(t, calls[0].Env, "DEBIAN_FRONTEND=noninteractive")
}

func TestInstaller_Install_NoPackages(t *testing.T) {
	rec := execrunner.NewRecorder()
	inst := NewInstaller(rec, "")

	require.NoError(t, inst.Install(context.Background(), nil))
	assert.Empty(t, rec.Calls())
}

func TestInstaller_CustomCommand(t *testing.T) {
	rec := execrunner.NewRecorder()
	inst := NewInstaller(rec, "apt")

	require.NoError(t, inst.Install(context.Background(), []string{"gcc"}))
	require.Len(t, rec.Calls(), 1)
	assert.Equal(t, "apt", rec.Calls()[0].Name)
}

func TestInstaller_InstallFailurePropagates(t *testing.T) {
	rec := execrunner.NewRecorder()
	rec.Fail = map[string]error{"apt-get": assert.AnError}
	inst := NewInstaller(rec, "")

	err := inst.Install(context.Background(), []string{"gcc"})
	assert.ErrorIs(t, err, assert.AnError)
}
