package rules

import (
	"strings"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/skills"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
)

// SkillIndex joins the frontmatter of every file that has one, in order.
// This approximates the skill index an agent keeps in context.
func SkillIndex(files []*skills.File) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		if f.HasFrontmatter {
			parts = append(parts, f.Frontmatter)
		}
	}
	return strings.Join(parts, "\n")
}

// SkillIndexBudget checks the combined frontmatter of files against
// skill-index-budget. Findings carry linttypes.AggregateLabel as file.
func SkillIndexBudget(cfg *config.Config, files []*skills.File, counter tokenizer.Counter) ([]linttypes.Finding, error) {
	if cfg.Rules.SkillIndexBudget == nil {
		return nil, nil
	}

	index := SkillIndex(files)

	var findings []linttypes.Finding
	for _, model := range cfg.Rules.SkillIndexBudget.SortedModels() {
		budget, ok := cfg.ResolveSkillIndexBudget(model)
		if !ok {
			continue
		}
		finding, err := CheckBudget(config.RuleSkillIndexBudget, linttypes.AggregateLabel, model, index, budget, counter)
		if err != nil {
			return nil, err
		}
		findings = append(findings, finding)
	}
	return findings, nil
}
