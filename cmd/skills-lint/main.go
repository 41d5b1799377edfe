package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/logger"
	"github.com/jingkaihe/skills-lint/pkg/presenter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Process exit codes
const (
	exitPass    = 0
	exitError   = 1
	exitWarning = 2
	exitFatal   = 3
)

func init() {
	viper.SetEnvPrefix("SKILLS_LINT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

var rootCmd = &cobra.Command{
	Use:   "skills-lint",
	Short: "Lint agent skill markdown files against per-model token budgets",
	Long: `skills-lint checks SKILL.md files against per-model token budgets and
structural rules configured in .skills-lint.config.json.

Exit codes: 0 all rules passed, 1 an error threshold was hit, 2 a warning
threshold was hit, 3 the linter itself failed (config, discovery, IO).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return logger.Configure(viper.GetString("log-level"), viper.GetString("log-format"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := getLintConfigFromFlags(cmd)
		presenter.SetQuiet(quietOutput(cfg))
		os.Exit(runLint(cmd.Context(), cfg, os.Stdout))
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defaults := NewLintConfig()
	flags := rootCmd.PersistentFlags()
	flags.String("config", defaults.ConfigPath, "Config file path")
	flags.Bool("verbose", defaults.Verbose, "Show all findings including passing rules")
	flags.Bool("no-cache", defaults.NoCache, "Do not read or write the token cache")
	flags.String("format", defaults.Format, "Output format (table or json)")
	flags.Int("jobs", defaults.Jobs, "Files linted concurrently (0 means one per CPU)")
	flags.String("log-level", logger.DefaultLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", "fmt", "Log format (fmt or json)")

	rootCmd.Flags().String("file", defaults.File, "Lint a single file instead of using config patterns")
	rootCmd.Flags().Bool("quiet", defaults.Quiet, "Suppress the banner (for CI)")

	bindFlags(flags)
	bindFlags(rootCmd.Flags())

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)

	ctx = logger.WithLogger(ctx, logger.L.WithField("app", "skills-lint"))
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		presenter.Error(err, "")
		os.Exit(exitFatal)
	}
}

// configPath returns the --config value, falling back to the default location
func configPath() string {
	if p := viper.GetString("config"); p != "" {
		return p
	}
	return config.DefaultPath
}

// bindFlags binds every flag in fs to the viper key of the same name
func bindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(flag *pflag.Flag) {
		viper.BindPFlag(flag.Name, flag)
	})
}
