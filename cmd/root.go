package cmd

import (
	"fmt"
	"os"

	"decomp-history/core/apperr"
	"decomp-history/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// stateDir holds config.toml, the lock file and, by default, the
// repository and the work area.
var stateDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "decomp-history",
	Short: "Decompiled version history",
	Long: `decomp-history keeps a git repository with one commit of decompiled
source per game version in the configured range, tagged with the version
and ordered by release date.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code of the failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format at debug level gives ISO8601 timestamps.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(apperr.ExitCode(err))
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&stateDir, "state-dir", "C", ".", "state directory holding config.toml")
}
