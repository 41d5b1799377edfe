package config

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
)

// DefaultPattern is the glob suggested by init
const DefaultPattern = "./.github/**/SKILL.md"

// Threshold is a warning/error pair
type Threshold struct {
	Warning int
	Error   int
}

// ModelDefaults are the budgets init proposes for a model
type ModelDefaults struct {
	TokenLimit       Threshold
	FrontmatterLimit Threshold
	SkillIndexBudget Threshold
}

// DefaultBudgets returns the starter budgets for model. Unknown models get
// the gpt-4o sized defaults.
func DefaultBudgets(model string) ModelDefaults {
	switch model {
	case "gpt-5":
		return ModelDefaults{
			TokenLimit:       Threshold{Warning: 16000, Error: 32000},
			FrontmatterLimit: Threshold{Warning: 2000, Error: 4000},
			SkillIndexBudget: Threshold{Warning: 4000, Error: 8000},
		}
	case "gpt-4":
		return ModelDefaults{
			TokenLimit:       Threshold{Warning: 2000, Error: 4000},
			FrontmatterLimit: Threshold{Warning: 500, Error: 1000},
			SkillIndexBudget: Threshold{Warning: 1000, Error: 2000},
		}
	case "gpt-3.5-turbo":
		return ModelDefaults{
			TokenLimit:       Threshold{Warning: 4000, Error: 8000},
			FrontmatterLimit: Threshold{Warning: 500, Error: 1000},
			SkillIndexBudget: Threshold{Warning: 1000, Error: 2000},
		}
	default:
		return ModelDefaults{
			TokenLimit:       Threshold{Warning: 8000, Error: 16000},
			FrontmatterLimit: Threshold{Warning: 1000, Error: 2000},
			SkillIndexBudget: Threshold{Warning: 2000, Error: 4000},
		}
	}
}

// InitialConfig builds the config written by init. token-limit is always
// present; optionalRules turns on any of OptionalRules.
func InitialConfig(pattern string, models, optionalRules []string) *Config {
	cfg := &Config{
		Patterns: []string{pattern},
		Rules: RulesConfig{
			TokenLimit: budgetRule(models, func(d ModelDefaults) Threshold { return d.TokenLimit }),
		},
	}

	enabled := true
	for _, rule := range optionalRules {
		switch rule {
		case RuleFrontmatterLimit:
			cfg.Rules.FrontmatterLimit = budgetRule(models, func(d ModelDefaults) Threshold { return d.FrontmatterLimit })
		case RuleSkillIndexBudget:
			cfg.Rules.SkillIndexBudget = budgetRule(models, func(d ModelDefaults) Threshold { return d.SkillIndexBudget })
		case RuleSkillStructure:
			cfg.Rules.SkillStructure = &enabled
		case RuleUniqueName:
			cfg.Rules.UniqueName = &enabled
		case RuleUniqueDescription:
			cfg.Rules.UniqueDescription = &enabled
		}
	}

	return cfg
}

func budgetRule(models []string, pick func(ModelDefaults) Threshold) *BudgetRule {
	rule := &BudgetRule{Models: make(map[string]ModelBudget, len(models))}
	for _, model := range models {
		t := pick(DefaultBudgets(model))
		warning, errorAt := t.Warning, t.Error
		rule.Models[model] = ModelBudget{Warning: &warning, Error: &errorAt}
	}
	return rule
}

// Marshal renders cfg as indented JSON with a trailing newline
func Marshal(cfg *Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode config")
	}
	return append(data, '\n'), nil
}

// IsOptionalRule reports whether rule can be toggled by init
func IsOptionalRule(rule string) bool {
	return slices.Contains(OptionalRules, rule)
}
