package driven

import (
	"context"

	"github.com/monetci/monetup/internal/core/domain"
)

// PackageInstaller installs OS packages.
type PackageInstaller interface {
	// Install installs the named packages non-interactively.
	Install(ctx context.Context, names []string) error
}

// SourceFetcher downloads and unpacks the upstream source tarball.
type SourceFetcher interface {
	// Fetch downloads url into destDir and returns the archive path.
	// A previously downloaded archive of the same name is reused.
	Fetch(ctx context.Context, url, destDir string) (string, error)

	// Extract unpacks the archive under destDir and returns the source
	// root, the single top-level directory of the tarball.
	Extract(ctx context.Context, archive, destDir string) (string, error)
}

// Builder drives the upstream build system in an unpacked source tree.
type Builder interface {
	// Build runs, in order: ./bootstrap (when the tree carries one),
	// ./configure with the given options, make -j, and make install.
	Build(ctx context.Context, srcRoot string, cfg domain.BuildConfig) error
}

// FarmController manages the database farm and the monetdbd daemon.
type FarmController interface {
	// Create initialises the farm directory (monetdbd create).
	Create(ctx context.Context, farmDir string) error

	// Set configures one farm property (monetdbd set key=value).
	Set(ctx context.Context, farmDir, key, value string) error

	// Start launches the daemon for the farm (monetdbd start).
	Start(ctx context.Context, farmDir string) error

	// Stop shuts the daemon down (monetdbd stop).
	Stop(ctx context.Context, farmDir string) error

	// WaitReady blocks until the daemon accepts connections on port,
	// or the context is cancelled. Returns domain.ErrDaemonNotReady on
	// timeout.
	WaitReady(ctx context.Context, farmDir string, port int) error
}

// DatabaseAdmin manages databases within a running farm.
type DatabaseAdmin interface {
	// Create creates a new database in maintenance mode (monetdb create).
	Create(ctx context.Context, name string) error

	// Release takes the database out of maintenance mode (monetdb release).
	Release(ctx context.Context, name string) error

	// Destroy removes the database (monetdb destroy -f).
	Destroy(ctx context.Context, name string) error
}

// DepInstaller installs test-time dependencies from a pip requirements
// manifest and checks their importability.
type DepInstaller interface {
	// Install runs pip install -r manifest.
	Install(ctx context.Context, manifest string) error

	// Modules parses the manifest and returns the importable module
	// name of each requirement.
	Modules(manifest string) ([]string, error)

	// Importable checks that module can be imported by the given
	// Python interpreter.
	Importable(ctx context.Context, python, module string) error
}
