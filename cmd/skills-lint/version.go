package main

import (
	"fmt"
	"os"

	"github.com/jingkaihe/skills-lint/pkg/presenter"
	"github.com/jingkaihe/skills-lint/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of skills-lint in JSON format.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		info, err := version.Get().JSON()
		if err != nil {
			presenter.Error(err, "Failed to format version info")
			os.Exit(exitFatal)
		}
		fmt.Fprintln(cmd.OutOrStdout(), info)
	},
}
