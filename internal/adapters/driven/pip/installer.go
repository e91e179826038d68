// Package pip implements the DepInstaller port: it installs the
// test-time Python dependencies from a requirements manifest and can
// check each one for importability afterwards.
package pip

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Installer implements the interface.
var _ driven.DepInstaller = (*Installer)(nil)

// moduleAliases maps distribution names whose importable module is not
// simply the name with dashes replaced.
var moduleAliases = map[string]string{
	"python-dateutil": "dateutil",
	"pyyaml":          "yaml",
	"beautifulsoup4":  "bs4",
	"pillow":          "PIL",
	"python-snappy":   "snappy",
	"msgpack-python":  "msgpack",
}

// Installer installs and checks pip requirements.
type Installer struct {
	runner  driven.CommandRunner
	command string
}

// NewInstaller creates an Installer. An empty command defaults to pip.
func NewInstaller(runner driven.CommandRunner, command string) *Installer {
	if command == "" {
		command = "pip"
	}
	return &Installer{runner: runner, command: command}
}

// Install runs `pip install -r <manifest>`.
func (i *Installer) Install(ctx context.Context, manifest string) error {
	logger.Info("installing test requirements from %s", manifest)
	return i.runner.Run(ctx, driven.CommandSpec{
		Name: i.command,
		Args: []string{"install", "-r", manifest},
	})
}

// Modules parses the manifest and returns the importable module name
// of each requirement, in file order.
func (i *Installer) Modules(manifest string) ([]string, error) {
	file, err := os.Open(manifest)
	if err != nil {
		return nil, fmt.Errorf("open requirements manifest: %w", err)
	}
	defer file.Close()

	var modules []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name, ok := parseRequirement(scanner.Text())
		if !ok {
			continue
		}
		modules = append(modules, moduleName(name))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read requirements manifest: %w", err)
	}
	return modules, nil
}

// Importable checks that module can be imported by python.
func (i *Installer) Importable(ctx context.Context, python, module string) error {
	if python == "" {
		python = "python"
	}
	err := i.runner.Run(ctx, driven.CommandSpec{
		Name: python,
		Args: []string{"-c", "import " + module},
	})
	if err != nil {
		return fmt.Errorf("module %s not importable: %w", module, err)
	}
	return nil
}

// parseRequirement extracts the distribution name from one manifest
// line. Comments, blank lines and pip options yield ok=false.
func parseRequirement(line string) (string, bool) {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "-") {
		return "", false
	}

	// Drop environment markers and extras.
	if idx := strings.Index(line, ";"); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	if idx := strings.Index(line, "["); idx >= 0 {
		line = line[:idx]
	}

	// Cut at the version specifier.
	if idx := strings.IndexAny(line, "=<>!~ "); idx >= 0 {
		line = line[:idx]
	}
	if line == "" {
		return "", false
	}
	return line, true
}

// moduleName maps a distribution name to its importable module.
func moduleName(dist string) string {
	lower := strings.ToLower(dist)
	if alias, ok := moduleAliases[lower]; ok {
		return alias
	}
	return strings.ReplaceAll(lower, "-", "_")
}
