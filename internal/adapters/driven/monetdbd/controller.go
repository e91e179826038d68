// Package monetdbd implements the FarmController port by driving the
// monetdbd CLI, and waits for the daemon to come up by watching the
// farm directory and polling the MAPI port.
package monetdbd

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Controller implements the interface.
var _ driven.FarmController = (*Controller)(nil)

// lockFile is the file merovingian creates in the farm directory once
// it owns the farm.
const lockFile = ".merovingian_lock"

const (
	defaultReadyTimeout = 60 * time.Second
	pollDelay           = 200 * time.Millisecond
	pollMaxDelay        = 2 * time.Second
	dialTimeout         = time.Second
)

// Controller manages a database farm through the monetdbd CLI.
type Controller struct {
	runner  driven.CommandRunner
	command string

	// ReadyTimeout bounds WaitReady when the context has no deadline.
	ReadyTimeout time.Duration
}

// NewController creates a Controller. An empty command defaults to
// monetdbd.
func NewController(runner driven.CommandRunner, command string) *Controller {
	if command == "" {
		command = "monetdbd"
	}
	return &Controller{runner: runner, command: command, ReadyTimeout: defaultReadyTimeout}
}

// Create initialises the farm directory: monetdbd create <farm>.
func (c *Controller) Create(ctx context.Context, farmDir string) error {
	return c.run(ctx, "create", farmDir)
}

// Set configures a farm property: monetdbd set key=value <farm>.
func (c *Controller) Set(ctx context.Context, farmDir, key, value string) error {
	return c.run(ctx, "set", key+"="+value, farmDir)
}

// Start launches the daemon: monetdbd start <farm>.
func (c *Controller) Start(ctx context.Context, farmDir string) error {
	return c.run(ctx, "start", farmDir)
}

// Stop shuts the daemon down: monetdbd stop <farm>.
func (c *Controller) Stop(ctx context.Context, farmDir string) error {
	return c.run(ctx, "stop", farmDir)
}

func (c *Controller) run(ctx context.Context, args ...string) error {
	return c.runner.Run(ctx, driven.CommandSpec{Name: c.command, Args: args})
}

// WaitReady blocks until the daemon accepts TCP connections on port.
// It first waits for the daemon's lock file to appear in the farm
// directory, then polls the port with backoff. Returns
// domain.ErrDaemonNotReady when the deadline passes first.
func (c *Controller) WaitReady(ctx context.Context, farmDir string, port int) error {
	timeout := c.ReadyTimeout
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.waitLockFile(ctx, farmDir); err != nil {
		// The lock file is a hint, not a contract; fall back to port
		// polling alone.
		logger.Debug("farm lock file wait: %v", err)
	}

	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			conn, err := net.DialTimeout("tcp", addr, dialTimeout)
			if err != nil {
				return err
			}
			return conn.Close()
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debug("daemon not ready (attempt %d): %v", attempt, err)
		},
		Attempts:    -1,
		Delay:       pollDelay,
		MaxDelay:    pollMaxDelay,
		MaxDuration: timeout,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clock.WallClock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrDaemonNotReady, addr, err)
	}
	logger.Info("monetdbd is accepting connections on %s", addr)
	return nil
}

// waitLockFile waits for merovingian's lock file to appear in farmDir.
func (c *Controller) waitLockFile(ctx context.Context, farmDir string) error {
	lock := filepath.Join(farmDir, lockFile)
	if _, err := os.Stat(lock); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(farmDir); err != nil {
		return err
	}
	// The file may have appeared between the stat and the watch.
	if _, err := os.Stat(lock); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("farm watcher closed")
			}
			if event.Name == lock && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("farm watcher closed")
			}
			return err
		}
	}
}
