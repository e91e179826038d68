package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/monetci/monetup/internal/core/domain"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the bootstrapped environment works",
	Long: `Runs the smoke checks against a bootstrapped environment: the
daemon answers on the control port, the test database accepts SQL
connections, and every test requirement is importable.

Connection parameters come from the configuration and can be
overridden with the MAPIPORT, TSTDB, TSTHOSTNAME, TSTUSERNAME and
TSTPASSWORD environment variables.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if verifier == nil {
		return errors.New("verify service not configured")
	}

	params := domain.VerifyParamsFromConfig(cfg)
	params.ApplyEnv()

	report, err := verifier.Verify(cmd.Context(), params)
	if report != nil {
		for _, check := range report.Checks {
			if check.Err != nil {
				cmd.Printf("✗ %s: %v\n", check.Name, check.Err)
				continue
			}
			cmd.Printf("✓ %s: %s\n", check.Name, check.Detail)
		}
	}
	return err
}
