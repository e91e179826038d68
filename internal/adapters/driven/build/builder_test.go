package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/adapters/driven/execrunner"
	"github.com/monetci/monetup/internal/core/domain"
)

func sourceTree(t *testing.T, withBootstrap bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configure"), []byte("#!/bin/sh\n"), 0755))
	if withBootstrap {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bootstrap"), []byte("#!/bin/sh\n"), 0755))
	}
	return dir
}

func TestBuilder_ReleaseTarball(t *testing.T) {
	rec := execrunner.NewRecorder()
	b := NewBuilder(rec)
	src := sourceTree(t, false)

	cfg := domain.BuildConfig{
		Options: []string{"--enable-debug", "--enable-assert", "--disable-optimize"},
	}
	require.NoError(t, b.Build(context.Background(), src, cfg))

	assert.Equal(t, []string{
		"./configure --enable-debug --enable-assert --disable-optimize",
		"make -j",
		"make install",
	}, rec.CommandLines())

	for _, call := range rec.Calls() {
		assert.Equal(t, src, call.Dir, "build commands run inside the source tree")
	}
}

func TestBuilder_BootstrapWhenPresent(t *testing.T) {
	rec := execrunner.NewRecorder()
	b := NewBuilder(rec)
	src := sourceTree(t, true)

	require.NoError(t, b.Build(context.Background(), src, domain.BuildConfig{}))

	lines := rec.CommandLines()
	require.NotEmpty(t, lines)
	assert.Equal(t, "./bootstrap", lines[0])
}

func TestBuilder_PrefixAndJobs(t *testing.T) {
	rec := execrunner.NewRecorder()
	b := NewBuilder(rec)
	src := sourceTree(t, false)

	prefix := t.TempDir()
	cfg := domain.BuildConfig{
		Prefix:  prefix,
		Options: []string{"--enable-debug"},
		Jobs:    4,
	}
	require.NoError(t, b.Build(context.Background(), src, cfg))

	lines := rec.CommandLines()
	assert.Equal(t, "./configure --enable-debug --prefix="+prefix, lines[0])
	assert.Equal(t, "make -j4", lines[1])
}

func TestBuilder_StopsAtFirstFailure(t *testing.T) {
	rec := execrunner.NewRecorder()
	rec.Fail = map[string]error{"./configure": assert.AnError}
	b := NewBuilder(rec)
	src := sourceTree(t, false)

	err := b.Build(context.Background(), src, domain.BuildConfig{})
	require.ErrorIs(t, err, assert.AnError)

	// make must never run after a failed configure.
	for _, line := range rec.CommandLines() {
		assert.NotContains(t, line, "make")
	}
}

func TestBuilder_MissingSourceRoot(t *testing.T) {
	b := NewBuilder(execrunner.NewRecorder())
	err := b.Build(context.Background(), filepath.Join(t.TempDir(), "nope"), domain.BuildConfig{})
	require.Error(t, err)
}
