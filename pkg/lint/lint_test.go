package lint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordCounter struct{}

func (wordCounter) CountTokens(text, encoding string) (int, error) {
	if !tokenizer.IsKnown(encoding) {
		return 0, errors.Wrapf(tokenizer.ErrUnknownEncoding, "%q", encoding)
	}
	return len(strings.Fields(text)), nil
}

func writeSkill(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name, "SKILL.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.ParseJSON([]byte(`{
		"patterns": ["` + filepath.ToSlash(dir) + `/**/SKILL.md"],
		"rules": {
			"token-limit": {"models": {"gpt-4o": {"warning": 10, "error": 20}, "gpt-4": {"warning": 10, "error": 20}}},
			"frontmatter-limit": {"models": {"gpt-4o": {"warning": 5, "error": 50}}},
			"skill-index-budget": {"models": {"gpt-4o": {"warning": 100, "error": 200}}},
			"skill-structure": true,
			"unique-name": true,
			"unique-description": true
		}
	}`))
	require.NoError(t, err)
	return cfg
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestLintFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSkill(t, dir, "deploy", "---\nname: deploy\ndescription: Deploy it\n---\nRun it.\n")

	l, err := New(testConfig(t, dir), WithCounter(wordCounter{}))
	require.NoError(t, err)

	result, err := l.LintFile(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, result.Findings, 3)
	assert.Equal(t, config.RuleTokenLimit, result.Findings[0].Rule)
	assert.Equal(t, "gpt-4", result.Findings[0].Model)
	assert.Equal(t, config.RuleTokenLimit, result.Findings[1].Rule)
	assert.Equal(t, "gpt-4o", result.Findings[1].Model)
	assert.Equal(t, config.RuleFrontmatterLimit, result.Findings[2].Rule)
	assert.Equal(t, 5, result.Findings[2].TokenCount)
	assert.Equal(t, linttypes.Warning, result.Findings[2].Severity)

	require.Len(t, result.StructureFindings, 1)
	assert.Equal(t, "valid", result.StructureFindings[0].Message)
}

func TestLintFile_Missing(t *testing.T) {
	dir := t.TempDir()
	l, err := New(testConfig(t, dir), WithCounter(wordCounter{}))
	require.NoError(t, err)

	_, err = l.LintFile(context.Background(), filepath.Join(dir, "nope.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.md")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := writeSkill(t, dir, "a", "---\nname: same\ndescription: First\n---\nBody.\n")
	b := writeSkill(t, dir, "b", "---\nname: same\ndescription: Second\n---\nBody.\n")
	c := writeSkill(t, dir, "c", "no frontmatter here\n")

	var (
		mu    sync.Mutex
		calls []int
	)
	l, err := New(testConfig(t, dir),
		WithCounter(wordCounter{}),
		WithJobs(2),
		WithProgress(func(done, total int, file string) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 3, total)
			calls = append(calls, done)
		}),
	)
	require.NoError(t, err)

	files, err := l.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{a, b, c}, files)

	report, err := l.Run(context.Background(), files)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{1, 2, 3}, calls)

	// per file findings in file order, then the skill index
	var order []string
	for _, f := range report.Findings {
		order = append(order, f.File)
	}
	assert.Equal(t, []string{a, a, a, b, b, b, c, c, linttypes.AggregateLabel}, order)

	last := report.Findings[len(report.Findings)-1]
	assert.Equal(t, config.RuleSkillIndexBudget, last.Rule)
	assert.Equal(t, 8, last.TokenCount)

	var messages []string
	for _, sf := range report.StructureFindings {
		messages = append(messages, sf.Rule+": "+sf.Message)
	}
	assert.Equal(t, []string{
		"skill-structure: valid",
		"skill-structure: valid",
		"skill-structure: invalid frontmatter",
		`unique-name: duplicate name "same" (also in ` + b + `)`,
		"unique-description: unique",
		`unique-name: duplicate name "same" (also in ` + a + `)`,
		"unique-description: unique",
	}, messages)

	assert.Equal(t, linttypes.Error, report.WorstSeverity())
}

func TestRunSingle_SkipsCrossFileRules(t *testing.T) {
	dir := t.TempDir()
	a := writeSkill(t, dir, "a", "---\nname: same\ndescription: First\n---\nBody.\n")
	writeSkill(t, dir, "b", "---\nname: same\ndescription: First\n---\nBody.\n")

	l, err := New(testConfig(t, dir), WithCounter(wordCounter{}))
	require.NoError(t, err)

	report, err := l.RunSingle(context.Background(), a)
	require.NoError(t, err)

	for _, f := range report.Findings {
		assert.Equal(t, a, f.File)
	}
	require.Len(t, report.StructureFindings, 1)
	assert.Equal(t, config.RuleSkillStructure, report.StructureFindings[0].Rule)
}

func TestRun_ErrorAborts(t *testing.T) {
	dir := t.TempDir()
	a := writeSkill(t, dir, "a", "---\nname: a\ndescription: d\n---\nBody.\n")

	l, err := New(testConfig(t, dir), WithCounter(wordCounter{}), WithJobs(1))
	require.NoError(t, err)

	_, err = l.Run(context.Background(), []string{a, filepath.Join(dir, "missing", "SKILL.md")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestRun_TokenizerError(t *testing.T) {
	dir := t.TempDir()
	a := writeSkill(t, dir, "a", "---\nname: a\ndescription: d\n---\nBody.\n")

	cfg := testConfig(t, dir)
	cfg.Rules.TokenLimit.Models["gpt-4"] = config.ModelBudget{Encoding: "bogus", Warning: intPtr(1), Error: intPtr(2)}

	l, err := New(cfg, WithCounter(wordCounter{}))
	require.NoError(t, err)

	_, err = l.Run(context.Background(), []string{a})
	assert.ErrorIs(t, err, tokenizer.ErrUnknownEncoding)
}

func TestRun_Empty(t *testing.T) {
	l, err := New(testConfig(t, t.TempDir()), WithCounter(wordCounter{}))
	require.NoError(t, err)

	report, err := l.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, linttypes.Pass, report.WorstSeverity())
	assert.Empty(t, report.StructureFindings)
}

func intPtr(v int) *int { return &v }
