package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/jingkaihe/skills-lint/pkg/cache"
	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/logger"
	"github.com/jingkaihe/skills-lint/pkg/presenter"
	"github.com/jingkaihe/skills-lint/pkg/tui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const gitignorePath = ".gitignore"

// InitConfig holds configuration for the init command
type InitConfig struct {
	ConfigPath    string
	GitignorePath string
}

// NewInitConfig creates a new InitConfig with default values
func NewInitConfig() *InitConfig {
	return &InitConfig{
		ConfigPath:    config.DefaultPath,
		GitignorePath: gitignorePath,
	}
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with an interactive wizard",
	Long: `Walks through the glob pattern, the models to check and the optional rules,
then writes .skills-lint.config.json (or the --config path) and adds the token
cache directory to .gitignore.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg := getInitConfigFromFlags(cmd)
		if err := runInit(cmd.Context(), cfg); err != nil {
			presenter.Error(err, "")
			os.Exit(exitError)
		}
	},
}

func getInitConfigFromFlags(_ *cobra.Command) *InitConfig {
	cfg := NewInitConfig()
	cfg.ConfigPath = configPath()
	return cfg
}

// wizardFunc collects the init answers
type wizardFunc func(ctx context.Context) (tui.WizardResult, error)

func runInit(ctx context.Context, cfg *InitConfig) error {
	return initWith(ctx, cfg, func(ctx context.Context) (tui.WizardResult, error) {
		return tui.RunWizard(ctx, os.Stdin, os.Stdout)
	})
}

func initWith(ctx context.Context, cfg *InitConfig, wizard wizardFunc) error {
	fmt.Println()
	presenter.Section("skills-lint init: configuration wizard")

	if _, err := os.Stat(cfg.ConfigPath); err == nil {
		if !presenter.Confirm(fmt.Sprintf("%s already exists. Overwrite?", cfg.ConfigPath), false) {
			presenter.Dim("Aborted.")
			return nil
		}
	}

	answers, err := wizard(ctx)
	if errors.Is(err, tui.ErrAborted) {
		presenter.Dim("Aborted.")
		return nil
	}
	if err != nil {
		return err
	}
	if len(answers.Models) == 0 {
		return errors.New("at least one model must be selected")
	}

	data, err := config.Marshal(config.InitialConfig(answers.Pattern, answers.Models, answers.Rules))
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(cfg.ConfigPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", cfg.ConfigPath)
	}
	logger.G(ctx).WithField("path", cfg.ConfigPath).Debug("wrote config")
	presenter.Success(fmt.Sprintf("wrote %s", cfg.ConfigPath))

	added, err := updateGitignore(cfg.GitignorePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		presenter.Dim(fmt.Sprintf("tip: add %s to your .gitignore", cache.IgnoreEntry))
	case err != nil:
		logger.G(ctx).WithError(err).Debug("could not update .gitignore")
		presenter.Warning(fmt.Sprintf("could not update %s, add %s by hand", cfg.GitignorePath, cache.IgnoreEntry))
	case added:
		presenter.Success(fmt.Sprintf("added %s to %s", cache.IgnoreEntry, cfg.GitignorePath))
	}
	return nil
}

// updateGitignore appends the cache directory to the .gitignore at path
// unless a line already names it. A missing file is reported as an error
// so the caller can print a tip instead.
func updateGitignore(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", path)
	}

	text := string(content)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == cache.IgnoreEntry {
			return false, nil
		}
	}

	separator := ""
	if text != "" && !strings.HasSuffix(text, "\n") {
		separator = "\n"
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to stat %s", path)
	}
	if err := renameio.WriteFile(path, []byte(text+separator+cache.IgnoreEntry+"\n"), info.Mode().Perm()); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	return true, nil
}
