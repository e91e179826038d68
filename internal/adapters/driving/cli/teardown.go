package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Stop the daemon and remove the farm",
	Long: `Destroys the test database, stops monetdbd and removes the farm
directory. The compiled MonetDB installation and the downloaded source
are left in place so a later bootstrap can skip the build.`,
	RunE: runTeardown,
}

func init() {
	rootCmd.AddCommand(teardownCmd)
}

func runTeardown(cmd *cobra.Command, _ []string) error {
	if bootstrapper == nil {
		return errors.New("bootstrap service not configured")
	}

	if err := bootstrapper.Teardown(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Environment removed.")
	return nil
}
