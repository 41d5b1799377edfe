package config

import "github.com/jingkaihe/skills-lint/pkg/discovery"

// ResolvedBudget is the effective budget for one file and model
type ResolvedBudget struct {
	Encoding string
	Warning  int
	Error    int
}

// ResolveTokenLimit returns the token-limit budget for file and model.
// Every override entry matching file is applied in order, each replacing
// only the fields it sets.
func (c *Config) ResolveTokenLimit(file, model string) (ResolvedBudget, bool) {
	if c.Rules.TokenLimit == nil {
		return ResolvedBudget{}, false
	}
	global, ok := c.Rules.TokenLimit.Models[model]
	if !ok {
		return ResolvedBudget{}, false
	}

	encoding := global.Encoding
	warning := deref(global.Warning)
	errorAt := deref(global.Error)

	for _, entry := range c.Overrides {
		if entry.Rules.TokenLimit == nil || !entry.matches(file) {
			continue
		}
		ovr, ok := entry.Rules.TokenLimit.Models[model]
		if !ok {
			continue
		}
		if ovr.Encoding != "" {
			encoding = ovr.Encoding
		}
		if ovr.Warning != nil {
			warning = *ovr.Warning
		}
		if ovr.Error != nil {
			errorAt = *ovr.Error
		}
	}

	if encoding == "" {
		encoding = encodingFor(model)
	}

	return ResolvedBudget{Encoding: encoding, Warning: warning, Error: errorAt}, true
}

// ResolveFrontmatterLimit returns the frontmatter-limit budget for model.
// Overrides do not apply.
func (c *Config) ResolveFrontmatterLimit(model string) (ResolvedBudget, bool) {
	return resolve(c.Rules.FrontmatterLimit, model)
}

// ResolveSkillIndexBudget returns the skill-index-budget for model.
// Overrides do not apply.
func (c *Config) ResolveSkillIndexBudget(model string) (ResolvedBudget, bool) {
	return resolve(c.Rules.SkillIndexBudget, model)
}

func resolve(rule *BudgetRule, model string) (ResolvedBudget, bool) {
	if rule == nil {
		return ResolvedBudget{}, false
	}
	budget, ok := rule.Models[model]
	if !ok {
		return ResolvedBudget{}, false
	}

	encoding := budget.Encoding
	if encoding == "" {
		encoding = encodingFor(model)
	}
	return ResolvedBudget{
		Encoding: encoding,
		Warning:  deref(budget.Warning),
		Error:    deref(budget.Error),
	}, true
}

func (e OverrideEntry) matches(file string) bool {
	for _, pattern := range e.Files {
		if discovery.Match(pattern, file) {
			return true
		}
	}
	return false
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
