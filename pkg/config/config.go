// Package config loads and validates the project lint configuration
// (.skills-lint.config.json) and resolves the effective budget for every
// file, rule and model.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory
const DefaultPath = ".skills-lint.config.json"

// Rule names as they appear in the config file and in findings
const (
	RuleTokenLimit        = "token-limit"
	RuleFrontmatterLimit  = "frontmatter-limit"
	RuleSkillIndexBudget  = "skill-index-budget"
	RuleSkillStructure    = "skill-structure"
	RuleUniqueName        = "unique-name"
	RuleUniqueDescription = "unique-description"
)

// OptionalRules lists the rules that may be toggled on in addition to token-limit
var OptionalRules = []string{
	RuleFrontmatterLimit,
	RuleSkillIndexBudget,
	RuleSkillStructure,
	RuleUniqueName,
	RuleUniqueDescription,
}

// Config is the top-level project configuration
type Config struct {
	Patterns  []string        `json:"patterns" yaml:"patterns" jsonschema:"required,description=Glob patterns selecting the skill files to lint"`
	Cache     *bool           `json:"cache,omitempty" yaml:"cache,omitempty" jsonschema:"description=Persist token counts in .skills-lint-cache (default true)"`
	Rules     RulesConfig     `json:"rules" yaml:"rules" jsonschema:"required"`
	Overrides []OverrideEntry `json:"overrides,omitempty" yaml:"overrides,omitempty" jsonschema:"description=Per-file token-limit adjustments"`
}

// RulesConfig configures each rule. Absent optional rules are disabled.
type RulesConfig struct {
	TokenLimit        *BudgetRule `json:"token-limit" yaml:"token-limit" jsonschema:"required,description=Whole-file token budget per model"`
	SkillIndexBudget  *BudgetRule `json:"skill-index-budget,omitempty" yaml:"skill-index-budget,omitempty" jsonschema:"description=Budget for the frontmatter of all files combined"`
	FrontmatterLimit  *BudgetRule `json:"frontmatter-limit,omitempty" yaml:"frontmatter-limit,omitempty" jsonschema:"description=Frontmatter token budget per file"`
	SkillStructure    *bool       `json:"skill-structure,omitempty" yaml:"skill-structure,omitempty" jsonschema:"description=Require frontmatter with name and description plus a non-empty body"`
	UniqueName        *bool       `json:"unique-name,omitempty" yaml:"unique-name,omitempty" jsonschema:"description=Require frontmatter names to be unique"`
	UniqueDescription *bool       `json:"unique-description,omitempty" yaml:"unique-description,omitempty" jsonschema:"description=Require frontmatter descriptions to be unique"`
}

// BudgetRule maps model names to budgets
type BudgetRule struct {
	Models map[string]ModelBudget `json:"models" yaml:"models" jsonschema:"required"`
}

// ModelBudget is a warning/error token threshold pair. Warning and Error
// are required in rule budgets and optional in overrides.
type ModelBudget struct {
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty" jsonschema:"enum=cl100k_base,enum=o200k_base,enum=p50k_base,enum=r50k_base"`
	Warning  *int   `json:"warning,omitempty" yaml:"warning,omitempty" jsonschema:"minimum=0"`
	Error    *int   `json:"error,omitempty" yaml:"error,omitempty" jsonschema:"minimum=0"`
}

// OverrideEntry adjusts token-limit budgets for specific files. Files are
// exact paths or glob patterns.
type OverrideEntry struct {
	Files []string      `json:"files" yaml:"files" jsonschema:"required"`
	Rules OverrideRules `json:"rules" yaml:"rules" jsonschema:"required"`
}

// OverrideRules holds the overridable rules
type OverrideRules struct {
	TokenLimit *BudgetRule `json:"token-limit" yaml:"token-limit" jsonschema:"required"`
}

// UnsupportedModelError is reported for a model outside the supported table
type UnsupportedModelError struct {
	Rule  string
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model '%s' in %s (supported: %s)",
		e.Model, e.Rule, strings.Join(SupportedModelNames(), ", "))
}

// Load reads, parses and validates the config at path. Files ending in
// .yaml or .yml are parsed as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file '%s'", path)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(content)
	default:
		cfg, err = ParseJSON(content)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file '%s'", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file '%s'", path)
	}
	return cfg, nil
}

// ParseJSON decodes a JSON config without validating it. The document
// must hold exactly one JSON value.
func ParseJSON(content []byte) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after config object")
	}
	return &cfg, nil
}

// ParseYAML decodes a YAML config without validating it
func ParseYAML(content []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CacheEnabled reports whether the token cache should be used
func (c *Config) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// SkillStructureEnabled reports whether skill-structure is on
func (c *Config) SkillStructureEnabled() bool {
	return isTrue(c.Rules.SkillStructure)
}

// UniqueNameEnabled reports whether unique-name is on
func (c *Config) UniqueNameEnabled() bool {
	return isTrue(c.Rules.UniqueName)
}

// UniqueDescriptionEnabled reports whether unique-description is on
func (c *Config) UniqueDescriptionEnabled() bool {
	return isTrue(c.Rules.UniqueDescription)
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// Validate checks required fields, model names, encodings and thresholds.
// Every problem found is reported, in a stable order.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Patterns == nil {
		result = multierror.Append(result, errors.New("missing field 'patterns'"))
	}

	if c.Rules.TokenLimit == nil {
		result = multierror.Append(result, errors.Errorf("missing field 'rules.%s'", RuleTokenLimit))
	} else {
		result = validateBudgetRule(result, RuleTokenLimit, c.Rules.TokenLimit, true)
	}
	if c.Rules.SkillIndexBudget != nil {
		result = validateBudgetRule(result, RuleSkillIndexBudget, c.Rules.SkillIndexBudget, true)
	}
	if c.Rules.FrontmatterLimit != nil {
		result = validateBudgetRule(result, RuleFrontmatterLimit, c.Rules.FrontmatterLimit, true)
	}

	for i, entry := range c.Overrides {
		name := fmt.Sprintf("overrides[%d].%s", i, RuleTokenLimit)
		if entry.Rules.TokenLimit == nil {
			result = multierror.Append(result, errors.Errorf("missing field '%s'", name))
			continue
		}
		result = validateBudgetRule(result, name, entry.Rules.TokenLimit, false)
	}

	return result.ErrorOrNil()
}

func validateBudgetRule(result *multierror.Error, rule string, br *BudgetRule, requireThresholds bool) *multierror.Error {
	if br.Models == nil {
		return multierror.Append(result, errors.Errorf("missing field '%s.models'", rule))
	}
	for _, model := range sortedModels(br.Models) {
		if !IsSupportedModel(model) {
			result = multierror.Append(result, &UnsupportedModelError{Rule: rule, Model: model})
			continue
		}

		budget := br.Models[model]
		if budget.Encoding != "" && !tokenizer.IsKnown(budget.Encoding) {
			result = multierror.Append(result, errors.Wrapf(tokenizer.ErrUnknownEncoding, "%s.%s: %q", rule, model, budget.Encoding))
		}
		if requireThresholds {
			if budget.Warning == nil {
				result = multierror.Append(result, errors.Errorf("%s.%s: missing field 'warning'", rule, model))
			}
			if budget.Error == nil {
				result = multierror.Append(result, errors.Errorf("%s.%s: missing field 'error'", rule, model))
			}
		}
		if budget.Warning != nil && *budget.Warning < 0 {
			result = multierror.Append(result, errors.Errorf("%s.%s: 'warning' must not be negative", rule, model))
		}
		if budget.Error != nil && *budget.Error < 0 {
			result = multierror.Append(result, errors.Errorf("%s.%s: 'error' must not be negative", rule, model))
		}
	}
	return result
}

// SortedModels returns the model names configured for a budget rule, sorted.
// Nil rules have no models.
func (br *BudgetRule) SortedModels() []string {
	if br == nil {
		return nil
	}
	return sortedModels(br.Models)
}

func sortedModels(models map[string]ModelBudget) []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
