// Package cli implements the monetup command-line interface. Commands
// are thin: they parse flags, wire the adapters into the core services
// and render results.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monetci/monetup/internal/adapters/driven/apt"
	"github.com/monetci/monetup/internal/adapters/driven/build"
	configfile "github.com/monetci/monetup/internal/adapters/driven/config/file"
	"github.com/monetci/monetup/internal/adapters/driven/execrunner"
	"github.com/monetci/monetup/internal/adapters/driven/fetch"
	"github.com/monetci/monetup/internal/adapters/driven/monetdb"
	"github.com/monetci/monetup/internal/adapters/driven/monetdbd"
	"github.com/monetci/monetup/internal/adapters/driven/pip"
	"github.com/monetci/monetup/internal/adapters/driven/storage/sqlite"
	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driving"
	"github.com/monetci/monetup/internal/core/services"
	"github.com/monetci/monetup/internal/logger"
	"github.com/monetci/monetup/internal/mapi"
)

// version is set at build time via -ldflags.
var version = "dev"

// Flags bound on the root command.
var (
	configPath string
	verbose    bool
)

// Services wired by initServices. Commands check for nil so tests can
// inject their own implementations.
var (
	cfg          *domain.Config
	bootstrapper driving.Bootstrapper
	verifier     driving.Verifier
	journal      *sqlite.Journal
)

var rootCmd = &cobra.Command{
	Use:   "monetup",
	Short: "Build and run a MonetDB test environment",
	Long: `monetup bootstraps a MonetDB test environment from source: it
installs the build packages, downloads and compiles a pinned MonetDB
release, starts a database farm under monetdbd and prepares a released
test database with the Python test dependencies installed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		// Version and help need no wiring.
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if journal != nil {
			journal.Close()
			journal = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default "+configfile.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads the configuration and wires the adapters into the
// core services. Pre-populated services are left alone so tests can
// swap them in.
func initServices() error {
	if cfg == nil {
		path := configPath
		explicit := path != ""
		if !explicit {
			path = configfile.DefaultPath
		}
		loaded, err := configfile.Load(path, explicit)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if bootstrapper != nil && verifier != nil {
		return nil
	}

	j, err := sqlite.NewJournal("")
	if err != nil {
		return fmt.Errorf("opening run journal: %w", err)
	}
	journal = j

	runner := execrunner.New()
	fetcher := fetch.NewFetcher()
	farm := monetdbd.NewController(runner, "")
	deps := pip.NewInstaller(runner, cfg.Deps.Pip)
	prober := mapi.NewProbe()

	if bootstrapper == nil {
		bootstrapper = services.NewBootstrapService(
			cfg,
			apt.NewInstaller(runner, cfg.Packages.Manager),
			fetcher,
			build.NewBuilder(runner),
			farm,
			monetdb.NewAdmin(runner, ""),
			deps,
			journal,
		)
	}
	if verifier == nil {
		verifier = services.NewVerifyService(prober, deps)
	}
	return nil
}
