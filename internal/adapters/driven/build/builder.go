// Package build implements the Builder port: it drives the upstream
// autotools build chain inside an unpacked MonetDB source tree.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Builder implements the interface.
var _ driven.Builder = (*Builder)(nil)

// Builder runs ./bootstrap, ./configure, make -j and make install.
type Builder struct {
	runner driven.CommandRunner
}

// NewBuilder creates a Builder.
func NewBuilder(runner driven.CommandRunner) *Builder {
	return &Builder{runner: runner}
}

// Build compiles and installs the source tree at srcRoot.
func (b *Builder) Build(ctx context.Context, srcRoot string, cfg domain.BuildConfig) error {
	if info, err := os.Stat(srcRoot); err != nil || !info.IsDir() {
		return fmt.Errorf("source root %s is not a directory", srcRoot)
	}

	// Release tarballs ship a generated configure; only repository
	// checkouts need the bootstrap step.
	if _, err := os.Stat(filepath.Join(srcRoot, "bootstrap")); err == nil {
		logger.Info("running ./bootstrap")
		if err := b.run(ctx, srcRoot, "./bootstrap"); err != nil {
			return err
		}
	}

	configureArgs := append([]string(nil), cfg.Options...)
	if cfg.Prefix != "" {
		prefix, err := filepath.Abs(cfg.Prefix)
		if err != nil {
			return fmt.Errorf("resolve prefix: %w", err)
		}
		configureArgs = append(configureArgs, "--prefix="+prefix)
	}
	logger.Info("running ./configure")
	if err := b.run(ctx, srcRoot, "./configure", configureArgs...); err != nil {
		return err
	}

	jobs := "-j"
	if cfg.Jobs > 0 {
		jobs = "-j" + strconv.Itoa(cfg.Jobs)
	}
	logger.Info("running make %s", jobs)
	if err := b.run(ctx, srcRoot, "make", jobs); err != nil {
		return err
	}

	logger.Info("running make install")
	return b.run(ctx, srcRoot, "make", "install")
}

func (b *Builder) run(ctx context.Context, dir, name string, args ...string) error {
	return b.runner.Run(ctx, driven.CommandSpec{Name: name, Args: args, Dir: dir})
}
