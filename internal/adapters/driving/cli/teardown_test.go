package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeardownCmd_Success(t *testing.T) {
	fake := &fakeBootstrapper{}
	buf, restore := withServices(fake, &fakeVerifier{})
	defer restore()

	rootCmd.SetArgs([]string{"teardown"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, fake.teardowns)
	assert.Contains(t, buf.String(), "Environment removed")
}

func TestTeardownCmd_Failure(t *testing.T) {
	fake := &fakeBootstrapper{teardownErr: errors.New("remove farm directory: permission denied")}
	_, restore := withServices(fake, &fakeVerifier{})
	defer restore()

	rootCmd.SetArgs([]string{"teardown"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
