package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dryRun bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring the repository in line with the configured version range",
	Long: `Fetches the version manifest, selects the versions in range, and adds,
removes or rebuilds commits until the repository holds exactly one tagged
commit per version. With --dry-run the plan is printed and nothing changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		rep, err := a.history.Run(ctx, dryRun)
		if err != nil {
			return err
		}

		if dryRun {
			return printPlan(cmd.OutOrStdout(), rep)
		}
		if rep.Result != nil {
			a.logger.Info("Run finished",
				zap.String("strategy", string(rep.Result.Strategy)),
				zap.Int("built", rep.Result.Built),
				zap.Int("reused", rep.Result.Reused),
				zap.Int("pruned", rep.Result.Pruned),
			)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without changing the repository")
	RootCmd.AddCommand(runCmd)
}
