package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cacheCmd groups artifact cache maintenance.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the artifact cache",
}

// cachePruneCmd represents the cache prune command
var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached outputs of other toolchains",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if a.cache == nil {
			return fmt.Errorf("artifact cache is not available; set storage.enabled and check the storage settings")
		}
		driver, err := a.newDriver(nil)
		if err != nil {
			return err
		}

		removed, err := a.cache.Prune(cmd.Context(), driver.Toolchain())
		if err != nil {
			return err
		}
		a.logger.Info("Artifact cache pruned",
			zap.Int("removed", removed),
			zap.String("kept_toolchain", driver.Toolchain()),
		)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	RootCmd.AddCommand(cacheCmd)
}
