package driven

import "context"

// CommandSpec describes one external command invocation.
type CommandSpec struct {
	// Name is the command to run, resolved via PATH when not absolute.
	Name string

	// Args are the command arguments, excluding the command name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env are extra environment entries in KEY=VALUE form, appended to
	// the inherited environment.
	Env []string
}

// CommandRunner executes external commands. All process invocation in
// the pipeline goes through this port so tests can substitute a fake.
type CommandRunner interface {
	// Run executes the command, streaming its output to the logger.
	// A non-zero exit status is returned as an error carrying the
	// command line and the tail of the combined output.
	Run(ctx context.Context, spec CommandSpec) error

	// Output executes the command and returns its standard output.
	Output(ctx context.Context, spec CommandSpec) ([]byte, error)
}
