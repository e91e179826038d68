package domain

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the full bootstrap configuration. Field defaults reproduce
// the canonical CI setup: a debug build of a fixed MonetDB release, a
// local farm on the default MAPI port, and a released database named
// "demo".
type Config struct {
	Packages PackagesConfig `toml:"packages"`
	Source   SourceConfig   `toml:"source"`
	Build    BuildConfig    `toml:"build"`
	Farm     FarmConfig     `toml:"farm"`
	Database DatabaseConfig `toml:"database"`
	Deps     DepsConfig     `toml:"deps"`
}

// PackagesConfig drives the OS package installation step.
type PackagesConfig struct {
	// Manager is the package manager command, normally apt-get.
	Manager string `toml:"manager"`

	// Names are the packages required to build MonetDB from source.
	Names []string `toml:"names"`
}

// SourceConfig drives the download-and-unpack step.
type SourceConfig struct {
	// URL is the upstream source tarball of the pinned release.
	URL string `toml:"url"`

	// Dir is the workspace the tarball is downloaded into and
	// extracted under.
	Dir string `toml:"dir"`
}

// BuildConfig drives the configure/make/make install step.
type BuildConfig struct {
	// Prefix is passed as --prefix when non-empty.
	Prefix string `toml:"prefix"`

	// Options are the configure flags.
	Options []string `toml:"options"`

	// Jobs is the make parallelism. Zero means a bare `make -j`.
	Jobs int `toml:"jobs"`
}

// FarmConfig drives farm creation and the monetdbd daemon.
type FarmConfig struct {
	// Dir is the database farm directory.
	Dir string `toml:"dir"`

	// Port is the MAPI port the daemon listens on.
	Port int `toml:"port"`

	// Control enables the control port (monetdbd set control=yes).
	Control bool `toml:"control"`

	// Passphrase is the control passphrase.
	Passphrase string `toml:"passphrase"`
}

// DatabaseConfig names the test database and its credentials.
type DatabaseConfig struct {
	Name     string `toml:"name"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// DepsConfig drives test dependency installation.
type DepsConfig struct {
	// Requirements is the pip requirements manifest.
	Requirements string `toml:"requirements"`

	// Pip is the pip command name.
	Pip string `toml:"pip"`

	// Python is the interpreter used for import checks.
	Python string `toml:"python"`
}

// DefaultConfig returns the configuration matching the original CI
// bootstrap: a debug, assert-enabled, unoptimised build of the pinned
// release, a farm with the control port enabled and the well-known
// test passphrase, and one database named demo.
func DefaultConfig() *Config {
	return &Config{
		Packages: PackagesConfig{
			Manager: "apt-get",
			Names: []string{
				"gcc", "bison", "libssl-dev", "pkg-config",
				"python3-dev", "libpcre3-dev", "libxml2-dev",
				"gettext", "flex", "libbz2-dev", "mercurial",
				"python3-pip",
			},
		},
		Source: SourceConfig{
			URL: "https://www.monetdb.org/downloads/sources/archive/MonetDB-11.21.19.tar.bz2",
			Dir: "build/monetdb-src",
		},
		Build: BuildConfig{
			Options: []string{"--enable-debug", "--enable-assert", "--disable-optimize"},
		},
		Farm: FarmConfig{
			Dir:        "build/farm",
			Port:       50000,
			Control:    true,
			Passphrase: "testdb",
		},
		Database: DatabaseConfig{
			Name:     "demo",
			Username: "monetdb",
			Password: "monetdb",
		},
		Deps: DepsConfig{
			Requirements: "test/requirements.txt",
			Pip:          "pip",
			Python:       "python",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot
// work with.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("%w: source.url is required", ErrInvalidConfig)
	}
	if c.Source.Dir == "" {
		return fmt.Errorf("%w: source.dir is required", ErrInvalidConfig)
	}
	if c.Farm.Dir == "" {
		return fmt.Errorf("%w: farm.dir is required", ErrInvalidConfig)
	}
	if c.Farm.Port <= 0 || c.Farm.Port > 65535 {
		return fmt.Errorf("%w: farm.port %d out of range", ErrInvalidConfig, c.Farm.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("%w: database.name is required", ErrInvalidConfig)
	}
	if c.Build.Jobs < 0 {
		return fmt.Errorf("%w: build.jobs must not be negative", ErrInvalidConfig)
	}
	return nil
}

// VerifyParams are the connection parameters for post-bootstrap
// verification.
type VerifyParams struct {
	Hostname   string
	Port       int
	Database   string
	Username   string
	Password   string
	Passphrase string

	// Requirements and Python drive the importability check.
	Requirements string
	Python       string
}

// VerifyParamsFromConfig derives verification parameters from the
// bootstrap configuration.
func VerifyParamsFromConfig(c *Config) VerifyParams {
	return VerifyParams{
		Hostname:     "localhost",
		Port:         c.Farm.Port,
		Database:     c.Database.Name,
		Username:     c.Database.Username,
		Password:     c.Database.Password,
		Passphrase:   c.Farm.Passphrase,
		Requirements: c.Deps.Requirements,
		Python:       c.Deps.Python,
	}
}

// ApplyEnv overrides parameters from the environment variables the
// MonetDB test suites conventionally honour: MAPIPORT, TSTDB,
// TSTHOSTNAME, TSTUSERNAME and TSTPASSWORD.
func (p *VerifyParams) ApplyEnv() {
	if v := os.Getenv("TSTHOSTNAME"); v != "" {
		p.Hostname = v
	}
	if v := os.Getenv("MAPIPORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			p.Port = port
		}
	}
	if v := os.Getenv("TSTDB"); v != "" {
		p.Database = v
	}
	if v := os.Getenv("TSTUSERNAME"); v != "" {
		p.Username = v
	}
	if v := os.Getenv("TSTPASSWORD"); v != "" {
		p.Password = v
	}
}
