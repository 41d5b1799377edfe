package rules

import (
	"strings"
	"testing"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/skills"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts whitespace separated words and records the encodings it was asked for
type wordCounter struct {
	encodings []string
}

func (w *wordCounter) CountTokens(text, encoding string) (int, error) {
	if !tokenizer.IsKnown(encoding) {
		return 0, errors.Wrapf(tokenizer.ErrUnknownEncoding, "%q", encoding)
	}
	w.encodings = append(w.encodings, encoding)
	return len(strings.Fields(text)), nil
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func budgetRule(models map[string][2]int) *config.BudgetRule {
	br := &config.BudgetRule{Models: map[string]config.ModelBudget{}}
	for name, t := range models {
		br.Models[name] = config.ModelBudget{Warning: intPtr(t[0]), Error: intPtr(t[1])}
	}
	return br
}

const validSkill = "---\nname: deploy\ndescription: Deploy the app\n---\n\nRun the deploy script.\n"

func TestCheckBudget(t *testing.T) {
	counter := &wordCounter{}
	budget := config.ResolvedBudget{Encoding: tokenizer.O200KBase, Warning: 3, Error: 5}

	tests := []struct {
		name     string
		content  string
		expected linttypes.Severity
	}{
		{name: "pass", content: "one two", expected: linttypes.Pass},
		{name: "warning at threshold", content: "one two three", expected: linttypes.Warning},
		{name: "error at threshold", content: "a b c d e", expected: linttypes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding, err := CheckBudget(config.RuleTokenLimit, "a.md", "gpt-4o", tt.content, budget, counter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, finding.Severity)
			assert.Equal(t, "gpt-4o", finding.Model)
			assert.Equal(t, 3, finding.WarningThreshold)
			assert.Equal(t, 5, finding.ErrorThreshold)
		})
	}
}

func TestCheckBudget_UnknownEncoding(t *testing.T) {
	budget := config.ResolvedBudget{Encoding: "nope", Warning: 1, Error: 2}
	_, err := CheckBudget(config.RuleTokenLimit, "a.md", "gpt-4o", "text", budget, &wordCounter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tokenizer.ErrUnknownEncoding))
	assert.Contains(t, err.Error(), "token-limit")
}

func TestTokenLimit_SortedModelsAndOverrides(t *testing.T) {
	cfg := &config.Config{
		Patterns: []string{"*.md"},
		Rules: config.RulesConfig{
			TokenLimit: budgetRule(map[string][2]int{"gpt-4o": {100, 200}, "gpt-4": {100, 200}}),
		},
		Overrides: []config.OverrideEntry{{
			Files: []string{"big.md"},
			Rules: config.OverrideRules{TokenLimit: &config.BudgetRule{Models: map[string]config.ModelBudget{
				"gpt-4": {Warning: intPtr(1)},
			}}},
		}},
	}
	counter := &wordCounter{}

	findings, err := TokenLimit(cfg, skills.Parse("big.md", validSkill), counter)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, "gpt-4", findings[0].Model)
	assert.Equal(t, 1, findings[0].WarningThreshold)
	assert.Equal(t, linttypes.Warning, findings[0].Severity)
	assert.Equal(t, "gpt-4o", findings[1].Model)
	assert.Equal(t, linttypes.Pass, findings[1].Severity)
	assert.Equal(t, []string{tokenizer.CL100KBase, tokenizer.O200KBase}, counter.encodings)

	for _, f := range findings {
		assert.Equal(t, config.RuleTokenLimit, f.Rule)
		assert.Equal(t, "big.md", f.File)
		assert.Equal(t, 12, f.TokenCount)
	}
}

func TestFrontmatterLimit(t *testing.T) {
	cfg := &config.Config{Rules: config.RulesConfig{
		FrontmatterLimit: budgetRule(map[string][2]int{"gpt-4o": {6, 7}}),
	}}

	findings, err := FrontmatterLimit(cfg, skills.Parse("a.md", validSkill), &wordCounter{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, config.RuleFrontmatterLimit, findings[0].Rule)
	assert.Equal(t, 6, findings[0].TokenCount)
	assert.Equal(t, linttypes.Warning, findings[0].Severity)

	t.Run("no frontmatter", func(t *testing.T) {
		findings, err := FrontmatterLimit(cfg, skills.Parse("b.md", "just a body\n"), &wordCounter{})
		require.NoError(t, err)
		assert.Empty(t, findings)
	})

	t.Run("rule disabled", func(t *testing.T) {
		findings, err := FrontmatterLimit(&config.Config{}, skills.Parse("a.md", validSkill), &wordCounter{})
		require.NoError(t, err)
		assert.Empty(t, findings)
	})
}

func TestSkillIndex(t *testing.T) {
	files := []*skills.File{
		skills.Parse("a.md", "---\nname: a\n---\nbody\n"),
		skills.Parse("b.md", "no frontmatter\n"),
		skills.Parse("c.md", "---\nname: c\n---\nbody\n"),
	}
	assert.Equal(t, "name: a\nname: c", SkillIndex(files))
	assert.Equal(t, "", SkillIndex(nil))
}

func TestSkillIndexBudget(t *testing.T) {
	cfg := &config.Config{Rules: config.RulesConfig{
		SkillIndexBudget: budgetRule(map[string][2]int{"gpt-4": {3, 4}}),
	}}
	files := []*skills.File{
		skills.Parse("a.md", "---\nname: a\n---\nbody\n"),
		skills.Parse("c.md", "---\nname: c\n---\nbody\n"),
	}

	findings, err := SkillIndexBudget(cfg, files, &wordCounter{})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, linttypes.AggregateLabel, findings[0].File)
	assert.Equal(t, config.RuleSkillIndexBudget, findings[0].Rule)
	assert.Equal(t, 4, findings[0].TokenCount)
	assert.Equal(t, linttypes.Error, findings[0].Severity)

	findings, err = SkillIndexBudget(&config.Config{}, files, &wordCounter{})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestSkillStructure(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		message  string
		severity linttypes.Severity
	}{
		{name: "valid", content: validSkill, message: "valid", severity: linttypes.Pass},
		{name: "no frontmatter", content: "# Title\n\nbody\n", message: "invalid frontmatter", severity: linttypes.Error},
		{name: "unclosed frontmatter", content: "---\nname: x\n", message: "invalid frontmatter", severity: linttypes.Error},
		{name: "missing name", content: "---\ndescription: d\n---\nbody\n", message: "missing name", severity: linttypes.Error},
		{name: "empty name", content: "---\nname:\ndescription: d\n---\nbody\n", message: "missing name", severity: linttypes.Error},
		{
			name:     "everything missing",
			content:  "---\ntitle: x\n---\n  \n\n",
			message:  "missing name, missing description, empty body",
			severity: linttypes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding := SkillStructure(skills.Parse("s.md", tt.content))
			assert.Equal(t, config.RuleSkillStructure, finding.Rule)
			assert.Equal(t, "s.md", finding.File)
			assert.Equal(t, tt.message, finding.Message)
			assert.Equal(t, tt.severity, finding.Severity)
		})
	}
}

func TestUniqueFields(t *testing.T) {
	cfg := &config.Config{Rules: config.RulesConfig{
		UniqueName:        boolPtr(true),
		UniqueDescription: boolPtr(true),
	}}
	files := []*skills.File{
		skills.Parse("a.md", "---\nname: deploy\ndescription: Deploys things\n---\nbody\n"),
		skills.Parse("b.md", "---\nname: deploy\ndescription: Something else\n---\nbody\n"),
		skills.Parse("c.md", "---\nname: test\n---\nbody\n"),
		skills.Parse("d.md", "no frontmatter\n"),
	}

	findings := UniqueFields(cfg, files)
	require.Len(t, findings, 5)

	assert.Equal(t, linttypes.StructureFinding{
		Rule: config.RuleUniqueName, File: "a.md", Message: `duplicate name "deploy" (also in b.md)`, Severity: linttypes.Error,
	}, findings[0])
	assert.Equal(t, linttypes.StructureFinding{
		Rule: config.RuleUniqueDescription, File: "a.md", Message: "unique", Severity: linttypes.Pass,
	}, findings[1])
	assert.Equal(t, `duplicate name "deploy" (also in a.md)`, findings[2].Message)
	assert.Equal(t, "b.md", findings[2].File)
	assert.Equal(t, config.RuleUniqueDescription, findings[3].Rule)
	assert.Equal(t, "c.md", findings[4].File)
	assert.Equal(t, linttypes.Pass, findings[4].Severity)
}

func TestUniqueFields_DescriptionTruncated(t *testing.T) {
	cfg := &config.Config{Rules: config.RulesConfig{UniqueDescription: boolPtr(true)}}
	desc := strings.Repeat("x", 50)
	files := []*skills.File{
		skills.Parse("a.md", "---\nname: a\ndescription: "+desc+"\n---\nbody\n"),
		skills.Parse("b.md", "---\nname: b\ndescription: "+desc+"\n---\nbody\n"),
		skills.Parse("c.md", "---\nname: c\ndescription: "+desc+"\n---\nbody\n"),
	}

	findings := UniqueFields(cfg, files)
	require.Len(t, findings, 3)
	assert.Equal(t, `duplicate description "`+strings.Repeat("x", 40)+`..." (also in b.md, c.md)`, findings[0].Message)
	assert.Equal(t, `duplicate description "`+strings.Repeat("x", 40)+`..." (also in a.md, b.md)`, findings[2].Message)
}

func TestUniqueFields_Disabled(t *testing.T) {
	files := []*skills.File{
		skills.Parse("a.md", validSkill),
		skills.Parse("b.md", validSkill),
	}
	assert.Empty(t, UniqueFields(&config.Config{}, files))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	assert.Equal(t, strings.Repeat("a", 40), truncate(strings.Repeat("a", 40)))

	// 39 ASCII bytes then a 3 byte rune straddling the cut
	s := strings.Repeat("a", 39) + "€" + "tail"
	assert.Equal(t, strings.Repeat("a", 39)+"...", truncate(s))
}
