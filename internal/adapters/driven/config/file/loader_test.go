package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/core/domain"
)

func TestLoad_MissingDefaultPathGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "monetup.toml"), false)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoad_MissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "custom.toml"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom.toml")
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monetup.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[farm]
dir = "/tmp/farm"
port = 51000

[database]
name = "ci"

[build]
jobs = 4
`), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/farm", cfg.Farm.Dir)
	assert.Equal(t, 51000, cfg.Farm.Port)
	assert.Equal(t, "ci", cfg.Database.Name)
	assert.Equal(t, 4, cfg.Build.Jobs)

	// Unset keys keep their defaults.
	assert.Equal(t, "testdb", cfg.Farm.Passphrase)
	assert.True(t, cfg.Farm.Control)
	assert.Equal(t, "apt-get", cfg.Packages.Manager)
	assert.Equal(t, []string{"--enable-debug", "--enable-assert", "--disable-optimize"}, cfg.Build.Options)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monetup.toml")
	require.NoError(t, os.WriteFile(path, []byte("[farm\nport = 1"), 0644))

	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "monetup.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[farm]
port = 99999
`), 0644))

	_, err := Load(path, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
