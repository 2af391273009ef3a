package cmd

import (
	"github.com/spf13/cobra"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would change",
	Long: `Fetches the version manifest and reconciles it with the repository.
Unlike run --dry-run it does not take the state directory lock or touch the
journal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		rep, err := a.history.Plan(cmd.Context())
		if err != nil {
			return err
		}
		return printPlan(cmd.OutOrStdout(), rep)
	},
}

func init() {
	planCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	RootCmd.AddCommand(planCmd)
}
