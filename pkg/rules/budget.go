// Package rules implements the lint rules. Budget rules count tokens and
// grade them against warning/error thresholds; structural rules inspect
// the frontmatter and body of skill files.
package rules

import (
	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/skills"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
)

// CheckBudget counts the tokens of content and grades them against budget
func CheckBudget(rule, file, model, content string, budget config.ResolvedBudget, counter tokenizer.Counter) (linttypes.Finding, error) {
	count, err := counter.CountTokens(content, budget.Encoding)
	if err != nil {
		return linttypes.Finding{}, errors.Wrapf(err, "%s: failed to count tokens for %s (%s)", rule, file, model)
	}

	return linttypes.Finding{
		Rule:             rule,
		File:             file,
		Model:            model,
		TokenCount:       count,
		WarningThreshold: budget.Warning,
		ErrorThreshold:   budget.Error,
		Severity:         linttypes.SeverityFor(count, budget.Warning, budget.Error),
	}, nil
}

// TokenLimit checks the whole file against token-limit for every configured
// model, in model name order. Per-file overrides apply.
func TokenLimit(cfg *config.Config, f *skills.File, counter tokenizer.Counter) ([]linttypes.Finding, error) {
	var findings []linttypes.Finding
	for _, model := range cfg.Rules.TokenLimit.SortedModels() {
		budget, ok := cfg.ResolveTokenLimit(f.Path, model)
		if !ok {
			continue
		}
		finding, err := CheckBudget(config.RuleTokenLimit, f.Path, model, f.Content, budget, counter)
		if err != nil {
			return nil, err
		}
		findings = append(findings, finding)
	}
	return findings, nil
}

// FrontmatterLimit checks the frontmatter of f for every model configured
// under frontmatter-limit. Files without frontmatter produce no findings.
func FrontmatterLimit(cfg *config.Config, f *skills.File, counter tokenizer.Counter) ([]linttypes.Finding, error) {
	if cfg.Rules.FrontmatterLimit == nil || !f.HasFrontmatter {
		return nil, nil
	}

	var findings []linttypes.Finding
	for _, model := range cfg.Rules.FrontmatterLimit.SortedModels() {
		budget, ok := cfg.ResolveFrontmatterLimit(model)
		if !ok {
			continue
		}
		finding, err := CheckBudget(config.RuleFrontmatterLimit, f.Path, model, f.Frontmatter, budget, counter)
		if err != nil {
			return nil, err
		}
		findings = append(findings, finding)
	}
	return findings, nil
}
