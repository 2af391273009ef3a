package cmd

import (
	"decomp-history/core/version"

	"github.com/spf13/cobra"
)

var (
	allVersions    bool
	cachedVersions bool
)

// versionsCmd represents the versions command
var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the versions selected by the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		var catalog version.Set
		if cachedVersions {
			m, err := a.catalog.Cached()
			if err != nil {
				return err
			}
			catalog = m.Set()
		} else if catalog, err = a.catalog.Versions(cmd.Context()); err != nil {
			return err
		}
		if allVersions {
			return printVersions(cmd.OutOrStdout(), catalog)
		}

		target, err := version.Select(catalog, a.cfg.Policy())
		if err != nil {
			return err
		}
		return printVersions(cmd.OutOrStdout(), target)
	},
}

func init() {
	versionsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	versionsCmd.Flags().BoolVar(&allVersions, "all", false, "list the whole catalog instead of the selected range")
	versionsCmd.Flags().BoolVar(&cachedVersions, "cached", false, "read the manifest saved by the last fetch instead of downloading it")
	RootCmd.AddCommand(versionsCmd)
}
