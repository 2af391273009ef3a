package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runsLimit int

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the versions in the repository",
	Long: `Inspects the repository without contacting the network. With --runs the
recent runs recorded in the journal are listed instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if runsLimit > 0 {
			if a.journal == nil {
				a.logger.Warn("Run journal is disabled", zap.Bool("database.enabled", a.cfg.Database.Enabled))
				return nil
			}
			runs, err := a.journal.Recent(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		}

		snap, err := a.history.Status(cmd.Context())
		if err != nil {
			return err
		}
		return printSnapshot(cmd.OutOrStdout(), snap)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	statusCmd.Flags().IntVar(&runsLimit, "runs", 0, "list this many recent runs from the journal")
	RootCmd.AddCommand(statusCmd)
}
