package monetdbd

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monetci/monetup/internal/adapters/driven/execrunner"
	"github.com/monetci/monetup/internal/core/domain"
)

func TestController_CommandShapes(t *testing.T) {
	rec := execrunner.NewRecorder()
	c := NewController(rec, "")
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "build/farm"))
	require.NoError(t, c.Set(ctx, "build/farm", "control", "yes"))
	require.NoError(t, c.Set(ctx, "build/farm", "passphrase", "testdb"))
	require.NoError(t, c.Start(ctx, "build/farm"))
	require.NoError(t, c.Stop(ctx, "build/farm"))

	assert.Equal(t, []string{
		"monetdbd create build/farm",
		"monetdbd set control=yes build/farm",
		"monetdbd set passphrase=testdb build/farm",
		"monetdbd start build/farm",
		"monetdbd stop build/farm",
	}, rec.CommandLines())
}

func TestController_WaitReady(t *testing.T) {
	// A listener stands in for the daemon's MAPI port.
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	farm := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(farm, lockFile), nil, 0644))

	c := NewController(execrunner.NewRecorder(), "")
	c.ReadyTimeout = 5 * time.Second

	require.NoError(t, c.WaitReady(context.Background(), farm, port))
}

func TestController_WaitReady_LockFileAppearsLater(t *testing.T) {
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	farm := t.TempDir()
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(farm, lockFile), nil, 0644)
	}()

	c := NewController(execrunner.NewRecorder(), "")
	c.ReadyTimeout = 5 * time.Second

	require.NoError(t, c.WaitReady(context.Background(), farm, port))
}

func TestController_WaitReady_Timeout(t *testing.T) {
	// Reserve a port with nothing listening on it.
	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	farm := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(farm, lockFile), nil, 0644))

	c := NewController(execrunner.NewRecorder(), "")
	c.ReadyTimeout = 500 * time.Millisecond

	err = c.WaitReady(context.Background(), farm, port)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDaemonNotReady)
}
