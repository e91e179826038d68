// Package apt implements the PackageInstaller port with apt-get,
// configured the way cloud-init drives it: fully non-interactive, with
// dpkg told never to prompt about configuration files.
package apt

import (
	"context"

	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Installer implements the interface.
var _ driven.PackageInstaller = (*Installer)(nil)

// aptGetOptions keep apt-get from blocking on any prompt.
var aptGetOptions = []string{
	"--option=Dpkg::Options::=--force-confold",
	"--option=Dpkg::options::=--force-unsafe-io",
	"--assume-yes",
	"--quiet",
}

// aptGetEnv suppresses debconf prompts.
var aptGetEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// Installer installs OS packages through apt-get (or a compatible
// command).
type Installer struct {
	runner  driven.CommandRunner
	command string
}

// NewInstaller creates an Installer. An empty command defaults to
// apt-get.
func NewInstaller(runner driven.CommandRunner, command string) *Installer {
	if command == "" {
		command = "apt-get"
	}
	return &Installer{runner: runner, command: command}
}

// Install runs `apt-get install <names...>` non-interactively.
func (i *Installer) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		logger.Debug("apt: no packages to install")
		return nil
	}

	args := append([]string(nil), aptGetOptions...)
	args = append(args, "install")
	args = append(args, names...)

	logger.Info("installing %d packages with %s", len(names), i.command)
	return i.runner.Run(ctx, driven.CommandSpec{
		Name: i.command,
		Args: args,
		Env:  append([]string(nil), aptGetEnv...),
	})
}
