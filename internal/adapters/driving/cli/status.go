package cli

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/monetci/monetup/internal/core/domain"
)

// statusRounding keeps displayed durations readable.
const statusRounding = time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of the last bootstrap run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if bootstrapper == nil {
		return errors.New("bootstrap service not configured")
	}

	run, err := bootstrapper.LastRun(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Println("No bootstrap runs recorded.")
			return nil
		}
		return err
	}

	cmd.Printf("Run %s\n", run.ID)
	cmd.Printf("  status:  %s\n", run.Status)
	cmd.Printf("  started: %s\n", humanize.Time(run.StartedAt))
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  took:    %s\n", run.FinishedAt.Sub(run.StartedAt).Round(statusRounding))
	}

	if len(run.Steps) > 0 {
		cmd.Println()
		for _, step := range run.Steps {
			switch step.Status {
			case domain.StepCompleted:
				cmd.Printf("  ✓ %-9s %s\n", step.StepID, step.Duration().Round(statusRounding))
			case domain.StepFailed:
				cmd.Printf("  ✗ %-9s %s\n", step.StepID, step.Error)
			case domain.StepSkipped:
				cmd.Printf("  - %-9s skipped\n", step.StepID)
			default:
				cmd.Printf("  • %-9s %s\n", step.StepID, step.Status)
			}
		}
	}
	return nil
}
