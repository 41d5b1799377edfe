package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jingkaihe/skills-lint/pkg/cache"
	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/lint"
	"github.com/jingkaihe/skills-lint/pkg/logger"
	"github.com/jingkaihe/skills-lint/pkg/presenter"
	"github.com/jingkaihe/skills-lint/pkg/report"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LintConfig holds the settings of a lint run
type LintConfig struct {
	File       string
	ConfigPath string
	Quiet      bool
	Verbose    bool
	NoCache    bool
	Format     string
	Jobs       int
}

// NewLintConfig creates a LintConfig with default values
func NewLintConfig() *LintConfig {
	return &LintConfig{
		File:       "",
		ConfigPath: config.DefaultPath,
		Quiet:      false,
		Verbose:    false,
		NoCache:    false,
		Format:     report.FormatTable,
		Jobs:       0,
	}
}

// getLintConfigFromFlags reads the lint settings. Flags are bound to viper,
// so SKILLS_LINT_* environment variables apply too.
func getLintConfigFromFlags(_ *cobra.Command) *LintConfig {
	cfg := NewLintConfig()

	cfg.File = viper.GetString("file")
	cfg.ConfigPath = configPath()
	cfg.Quiet = viper.GetBool("quiet")
	cfg.Verbose = viper.GetBool("verbose")
	cfg.NoCache = viper.GetBool("no-cache")
	if format := viper.GetString("format"); format != "" {
		cfg.Format = format
	}
	cfg.Jobs = viper.GetInt("jobs")

	return cfg
}

// quietOutput reports whether presenter messages and the progress bar
// should be suppressed: in CI runs and when stdout carries JSON.
func quietOutput(cfg *LintConfig) bool {
	return cfg.Quiet || cfg.Format == report.FormatJSON
}

// runLint lints and renders the report to out, returning the exit code
func runLint(ctx context.Context, cfg *LintConfig, out io.Writer) int {
	log := logger.G(ctx)

	renderer, err := report.New(cfg.Format, cfg.Verbose)
	if err != nil {
		presenter.Error(err, "")
		return exitFatal
	}
	table := cfg.Format != report.FormatJSON

	if !cfg.Quiet && table {
		fmt.Fprintln(out)
		printBanner(out)
	}

	lintCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		presenter.Error(err, "")
		return exitFatal
	}

	var (
		counter tokenizer.Counter = tokenizer.BPECounter{}
		tc      *cache.TokenCache
	)
	if lintCfg.CacheEnabled() && !cfg.NoCache {
		tc = cache.Load(ctx)
		counter = tc
	}

	bar := presenter.NewProgressBar(os.Stderr)
	linter, err := lint.New(lintCfg,
		lint.WithCounter(counter),
		lint.WithJobs(cfg.Jobs),
		lint.WithProgress(bar.Update),
		lint.WithSingleFile(cfg.File != ""),
	)
	if err != nil {
		presenter.Error(err, "")
		return exitFatal
	}

	var files []string
	if cfg.File != "" {
		files = []string{cfg.File}
	} else if files, err = linter.Discover(ctx); err != nil {
		presenter.Error(err, "")
		return exitFatal
	}

	result := linttypes.NewReport(nil, nil)
	if len(files) > 0 {
		result, err = linter.Run(ctx, files)
		bar.Clear()
		if err != nil {
			presenter.Error(err, "")
			return exitFatal
		}
	}

	if tc != nil {
		tc.Flush(ctx)
	}

	if table {
		fmt.Fprintln(out)
	}
	if err := renderer.Render(out, result); err != nil {
		presenter.Error(err, "")
		return exitFatal
	}

	summary := result.Summary()
	log.WithField("files", summary.Files).
		WithField("warnings", summary.Warnings).
		WithField("errors", summary.Errors).
		Info("lint finished")

	return exitCode(result.WorstSeverity())
}

func exitCode(s linttypes.Severity) int {
	switch s {
	case linttypes.Error:
		return exitError
	case linttypes.Warning:
		return exitWarning
	default:
		return exitPass
	}
}
