package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/monetci/monetup/internal/adapters/driving/tui"
	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driving"
)

var (
	bootstrapResume bool
	bootstrapPlain  bool
	bootstrapOnly   []string
	bootstrapSkip   []string
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Build and start a MonetDB test environment",
	Long: `Runs the bootstrap pipeline: install build packages, download and
compile the pinned MonetDB release, start a database farm under
monetdbd and prepare a released test database with the Python test
dependencies installed. The pipeline aborts at the first failing step;
use --resume to pick up where a failed run stopped.`,
	RunE: runBootstrap,
}

func init() {
	bootstrapCmd.Flags().BoolVar(&bootstrapResume, "resume", false,
		"skip steps the last interrupted run completed")
	bootstrapCmd.Flags().BoolVar(&bootstrapPlain, "plain", false,
		"plain line-based output instead of the live display")
	bootstrapCmd.Flags().StringSliceVar(&bootstrapOnly, "only", nil,
		"run only the named steps (packages, fetch, build, farm, database, deps)")
	bootstrapCmd.Flags().StringSliceVar(&bootstrapSkip, "skip", nil,
		"skip the named steps")
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	if bootstrapper == nil {
		return errors.New("bootstrap service not configured")
	}

	opts := driving.BootstrapOptions{
		Resume: bootstrapResume,
		Only:   stepIDs(bootstrapOnly),
		Skip:   stepIDs(bootstrapSkip),
	}
	plan, err := bootstrapper.Plan(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if bootstrapPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		opts.Observer = &plainObserver{cmd: cmd}
		_, err := bootstrapper.Bootstrap(ctx, opts)
		return err
	}
	return bootstrapWithDisplay(ctx, stop, plan, opts)
}

// bootstrapWithDisplay runs the pipeline behind a live progress
// display. The pipeline runs on its own goroutine; the display owns
// the terminal until the run ends.
func bootstrapWithDisplay(ctx context.Context, cancel func(), plan []domain.Step, opts driving.BootstrapOptions) error {
	prog := tui.NewProgress(plan, cancel)
	opts.Observer = prog

	errCh := make(chan error, 1)
	go func() {
		_, err := bootstrapper.Bootstrap(ctx, opts)
		prog.Done(err)
		errCh <- err
	}()

	if err := prog.Run(); err != nil {
		return err
	}
	return <-errCh
}

// plainObserver prints one line per step event, for CI logs and
// non-TTY output.
type plainObserver struct {
	cmd *cobra.Command
}

func (o *plainObserver) StepStarted(step domain.Step) {
	o.cmd.Printf("--> %s\n", step.Description)
}

func (o *plainObserver) StepFinished(step domain.Step, err error) {
	if err != nil {
		o.cmd.Printf("FAIL %s: %v\n", step.ID, err)
		return
	}
	o.cmd.Printf("ok   %s\n", step.ID)
}

func (o *plainObserver) StepSkipped(step domain.Step, reason string) {
	o.cmd.Printf("skip %s (%s)\n", step.ID, reason)
}

// stepIDs converts flag values to step identifiers.
func stepIDs(names []string) []domain.StepID {
	ids := make([]domain.StepID, 0, len(names))
	for _, n := range names {
		ids = append(ids, domain.StepID(n))
	}
	return ids
}
