package main

import (
	"fmt"
	"os"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/presenter"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	Long: `Print the JSON schema of .skills-lint.config.json. Point "$schema" at the
output to get completion and validation in editors.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		schema, err := config.SchemaJSON()
		if err != nil {
			presenter.Error(err, "Failed to generate schema")
			os.Exit(exitFatal)
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema)
	},
}
