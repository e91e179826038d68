package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/core/domain"
)

func TestBootstrapCmd_Use(t *testing.T) {
	assert.Equal(t, "bootstrap", bootstrapCmd.Use)
}

func TestBootstrapCmd_PlainOutput(t *testing.T) {
	fake := &fakeBootstrapper{run: &domain.Run{Status: domain.RunCompleted}}
	buf, restore := withServices(fake, &fakeVerifier{})
	defer restore()

	rootCmd.SetArgs([]string{"bootstrap", "--plain"})
	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "--> packages")
	assert.Contains(t, out, "ok   packages")
	assert.Contains(t, out, "ok   deps")
}

func TestBootstrapCmd_ForwardsFlags(t *testing.T) {
	fake := &fakeBootstrapper{run: &domain.Run{}}
	_, restore := withServices(fake, &fakeVerifier{})
	defer restore()
	defer func() {
		bootstrapResume = false
		bootstrapOnly = nil
		bootstrapSkip = nil
	}()

	rootCmd.SetArgs([]string{
		"bootstrap", "--plain", "--resume",
		"--only", "farm,database", "--skip", "database",
	})
	require.NoError(t, rootCmd.Execute())

	assert.True(t, fake.gotOpts.Resume)
	assert.Equal(t, []domain.StepID{domain.StepFarm, domain.StepDatabase}, fake.gotOpts.Only)
	assert.Equal(t, []domain.StepID{domain.StepDatabase}, fake.gotOpts.Skip)
}

func TestBootstrapCmd_PropagatesFailure(t *testing.T) {
	fake := &fakeBootstrapper{
		run:          &domain.Run{Status: domain.RunFailed},
		bootstrapErr: errors.New("step failed: build"),
	}
	_, restore := withServices(fake, &fakeVerifier{})
	defer restore()

	rootCmd.SetArgs([]string{"bootstrap", "--plain"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step failed: build")
}

func TestStepIDs(t *testing.T) {
	assert.Equal(t, []domain.StepID{domain.StepFarm, domain.StepDeps},
		stepIDs([]string{"farm", "deps"}))
	assert.Empty(t, stepIDs(nil))
}
