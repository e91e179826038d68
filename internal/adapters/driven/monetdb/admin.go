// Package monetdb implements the DatabaseAdmin port by driving the
// monetdb CLI against the locally running daemon.
package monetdb

import (
	"context"

	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Admin implements the interface.
var _ driven.DatabaseAdmin = (*Admin)(nil)

// Admin creates, releases and destroys databases.
type Admin struct {
	runner  driven.CommandRunner
	command string
}

// NewAdmin creates an Admin. An empty command defaults to monetdb.
func NewAdmin(runner driven.CommandRunner, command string) *Admin {
	if command == "" {
		command = "monetdb"
	}
	return &Admin{runner: runner, command: command}
}

// Create creates a database in maintenance mode: monetdb create <name>.
func (a *Admin) Create(ctx context.Context, name string) error {
	logger.Info("creating database %s", name)
	return a.runner.Run(ctx, driven.CommandSpec{Name: a.command, Args: []string{"create", name}})
}

// Release takes the database out of maintenance mode, making it
// available to clients: monetdb release <name>.
func (a *Admin) Release(ctx context.Context, name string) error {
	logger.Info("releasing database %s", name)
	return a.runner.Run(ctx, driven.CommandSpec{Name: a.command, Args: []string{"release", name}})
}

// Destroy removes the database without asking: monetdb destroy -f <name>.
func (a *Admin) Destroy(ctx context.Context, name string) error {
	logger.Info("destroying database %s", name)
	return a.runner.Run(ctx, driven.CommandSpec{Name: a.command, Args: []string{"destroy", "-f", name}})
}
