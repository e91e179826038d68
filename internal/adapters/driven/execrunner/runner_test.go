package execrunner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/core/ports/driven"
)

func TestRunner_Run_Success(t *testing.T) {
	r := New()
	err := r.Run(context.Background(), driven.CommandSpec{Name: "true"})
	require.NoError(t, err)
}

func TestRunner_Run_FailureCarriesCommandLine(t *testing.T) {
	r := New()
	err := r.Run(context.Background(), driven.CommandSpec{Name: "false"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false")
}

func TestRunner_Run_FailureCarriesOutputTail(t *testing.T) {
	r := New()
	err := r.Run(context.Background(), driven.CommandSpec{
		Name: "sh", Args: []string{"-c", "echo configure: error: missing bison >&2; exit 1"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configure: error: missing bison")
}

func TestRunner_Run_Dir(t *testing.T) {
	r := New()
	dir := t.TempDir()
	out, err := r.Output(context.Background(), driven.CommandSpec{Name: "pwd", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(string(out)))
}

func TestRunner_Run_Env(t *testing.T) {
	r := New()
	out, err := r.Output(context.Background(), driven.CommandSpec{
		Name: "sh", Args: []string{"-c", "echo $DEBIAN_FRONTEND"},
		Env: []string{"DEBIAN_FRONTEND=noninteractive"},
	})
	require.NoError(t, err)
	assert.Equal(t, "noninteractive", strings.TrimSpace(string(out)))
}

func TestRunner_Output_StderrInError(t *testing.T) {
	r := New()
	_, err := r.Output(context.Background(), driven.CommandSpec{
		Name: "sh", Args: []string{"-c", "echo broken >&2; exit 2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestRunner_Run_ContextCancelled(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, driven.CommandSpec{Name: "sleep", Args: []string{"10"}})
	require.Error(t, err)
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()

	require.NoError(t, rec.Run(context.Background(), driven.CommandSpec{
		Name: "monetdb", Args: []string{"create", "demo"},
	}))
	require.NoError(t, rec.Run(context.Background(), driven.CommandSpec{
		Name: "monetdb", Args: []string{"release", "demo"},
	}))

	assert.Equal(t, []string{"monetdb create demo", "monetdb release demo"}, rec.CommandLines())
}

func TestRecorder_ConfiguredFailure(t *testing.T) {
	rec := NewRecorder()
	rec.Fail = map[string]error{"make install": assert.AnError}

	require.NoError(t, rec.Run(context.Background(), driven.CommandSpec{Name: "make", Args: []string{"-j"}}))
	err := rec.Run(context.Background(), driven.CommandSpec{Name: "make", Args: []string{"install"}})
	assert.ErrorIs(t, err, assert.AnError)
}
