package cmd

import (
	"fmt"

	"decomp-history/feature/decompiler"
	"decomp-history/feature/repository"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X decomp-history/cmd.Version=...".
var Version = "dev"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the program and artifact format versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "decomp-history %s\n", Version)
		fmt.Fprintf(out, "sentinel format %d, classes format %d, libraries format %d\n",
			repository.FormatVersion, decompiler.ClassesFormat, decompiler.LibrariesFormat)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
