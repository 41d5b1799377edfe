package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleReport() *linttypes.Report {
	return linttypes.NewReport(
		[]linttypes.Finding{
			{Rule: "token-limit", File: "a/SKILL.md", Model: "gpt-4", TokenCount: 1200, WarningThreshold: 8000, ErrorThreshold: 12000, Severity: linttypes.Pass},
			{Rule: "token-limit", File: "a/SKILL.md", Model: "gpt-4o", TokenCount: 9500, WarningThreshold: 8000, ErrorThreshold: 12000, Severity: linttypes.Warning},
			{Rule: "token-limit", File: "b/SKILL.md", Model: "gpt-4o", TokenCount: 100, WarningThreshold: 8000, ErrorThreshold: 12000, Severity: linttypes.Pass},
			{Rule: "skill-index-budget", File: linttypes.AggregateLabel, Model: "gpt-4o", TokenCount: 300, WarningThreshold: 2000, ErrorThreshold: 4000, Severity: linttypes.Pass},
		},
		[]linttypes.StructureFinding{
			{Rule: "skill-structure", File: "a/SKILL.md", Message: "valid", Severity: linttypes.Pass},
			{Rule: "skill-structure", File: "b/SKILL.md", Message: "valid", Severity: linttypes.Pass},
		},
	)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in       int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{123456, "123,456"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatNumber(tt.in))
	}
}

func TestNew(t *testing.T) {
	r, err := New("", true)
	require.NoError(t, err)
	assert.Equal(t, &TableRenderer{Verbose: true}, r)

	r, err = New("JSON", false)
	require.NoError(t, err)
	assert.IsType(t, &JSONRenderer{}, r)

	_, err = New("xml", false)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestTableRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{}).Render(&buf, linttypes.NewReport(nil, nil)))
	assert.Equal(t, "  No files found to lint.\n", buf.String())
}

func TestTableRenderer_NonVerbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{}).Render(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "a/SKILL.md")
	assert.NotContains(t, out, "b/SKILL.md")
	assert.NotContains(t, out, linttypes.AggregateLabel)

	// only the failing row of a/SKILL.md is listed
	assert.Contains(t, out, "└─ token-limit")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "9,500")
	assert.Contains(t, out, "⚠ WARN")
	assert.NotContains(t, out, "1,200")
	assert.NotContains(t, out, "skill-structure")

	assert.Contains(t, out, "Results: 5 passed, 1 warnings across 2 files")
}

func TestTableRenderer_Verbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{Verbose: true}).Render(&buf, sampleReport()))
	out := buf.String()

	for _, s := range []string{
		"a/SKILL.md",
		"b/SKILL.md",
		linttypes.AggregateLabel,
		"├─ skill-structure   valid   ✓ PASS",
		"└─ token-limit",
		"└─ skill-index-budget",
		"1,200",
		"12,000",
		"Model", "Tokens", "Warning", "Error", "Status",
		"╭", "╰",
	} {
		assert.Contains(t, out, s)
	}

	// files precede the skill index, sections are separated by a rule
	assert.Less(t, strings.Index(out, "b/SKILL.md"), strings.Index(out, linttypes.AggregateLabel))
	assert.Equal(t, 2, strings.Count(out, strings.Repeat("─", sectionRuleWidth)))

	// table lines hang under the last connector
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "╭") {
			assert.True(t, strings.HasPrefix(line, "     ╭"), "unexpected table indent: %q", line)
		}
	}
}

func TestTableRenderer_StructureError(t *testing.T) {
	r := linttypes.NewReport(nil, []linttypes.StructureFinding{
		{Rule: "skill-structure", File: "x.md", Message: "missing name, empty body", Severity: linttypes.Error},
		{Rule: "unique-name", File: "x.md", Message: `duplicate name "x" (also in y.md)`, Severity: linttypes.Error},
		{Rule: "unique-name", File: "y.md", Message: "unique", Severity: linttypes.Pass},
	})

	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{}).Render(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "├─ skill-structure   missing name, empty body   ✗ ERROR")
	assert.Contains(t, out, "  │\n")
	assert.Contains(t, out, `└─ unique-name   duplicate name "x" (also in y.md)   ✗ ERROR`)
	assert.NotContains(t, out, "y.md\n")
	assert.Contains(t, out, "Results: 1 passed, 2 errors across 2 files")
}

func TestTableRenderer_SingleFile(t *testing.T) {
	r := linttypes.NewReport([]linttypes.Finding{
		{Rule: "token-limit", File: "a.md", Model: "gpt-4", TokenCount: 1, WarningThreshold: 10, ErrorThreshold: 20},
	}, nil)

	var buf bytes.Buffer
	require.NoError(t, (&TableRenderer{}).Render(&buf, r))
	assert.Contains(t, buf.String(), "Results: 1 passed across 1 file\n")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, sampleReport()))

	var decoded struct {
		Findings          []linttypes.Finding          `json:"findings"`
		StructureFindings []linttypes.StructureFinding `json:"structureFindings"`
		Summary           linttypes.Summary            `json:"summary"`
		WorstSeverity     string                       `json:"worstSeverity"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Len(t, decoded.Findings, 4)
	assert.Len(t, decoded.StructureFindings, 2)
	assert.Equal(t, linttypes.Summary{Total: 6, Passed: 5, Warnings: 1, Files: 2}, decoded.Summary)
	assert.Equal(t, "WARN", decoded.WorstSeverity)
	assert.Equal(t, linttypes.Warning, decoded.Findings[1].Severity)
}

func TestJSONRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(&buf, &linttypes.Report{}))
	assert.Contains(t, buf.String(), `"findings": []`)
	assert.Contains(t, buf.String(), `"worstSeverity": "PASS"`)
}
