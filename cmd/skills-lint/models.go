package main

import (
	"fmt"
	"io"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported models and their default encodings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		printModels(cmd.OutOrStdout())
	},
}

func printModels(w io.Writer) {
	width := 0
	for _, m := range config.SupportedModels() {
		width = max(width, len(m.Name))
	}
	for _, m := range config.SupportedModels() {
		fmt.Fprintf(w, "%-*s  %s\n", width, m.Name, m.DefaultEncoding)
	}
}
