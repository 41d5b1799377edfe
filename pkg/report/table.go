package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
)

const sectionRuleWidth = 50

var (
	boldStyle  = color.New(color.Bold)
	dimStyle   = color.New(color.Faint)
	passStyle  = color.New(color.FgGreen)
	warnStyle  = color.New(color.FgYellow, color.Bold)
	errorStyle = color.New(color.FgRed, color.Bold)
)

// TableRenderer prints one section per file with a tree of rules. Budget
// rules get a sub-table with one row per model. Unless Verbose is set only
// failing rules, and the files that have them, are shown.
type TableRenderer struct {
	Verbose bool
}

// section is one file (or the skill index) with its visible rules
type section struct {
	title string
	items []item
}

// item is either an inline structure finding or a budget rule sub-table
type item struct {
	structure *linttypes.StructureFinding
	rule      string
	budget    []linttypes.Finding
}

func (i item) severity() linttypes.Severity {
	if i.structure != nil {
		return i.structure.Severity
	}
	worst := linttypes.Pass
	for _, f := range i.budget {
		worst = max(worst, f.Severity)
	}
	return worst
}

// Render implements Renderer
func (t *TableRenderer) Render(w io.Writer, r *linttypes.Report) error {
	if r.Empty() {
		fmt.Fprintf(w, "  %s\n", dimStyle.Sprint("No files found to lint."))
		return nil
	}

	sections := t.sections(r)
	for i, s := range sections {
		t.renderSection(w, s)
		fmt.Fprintln(w)
		if i < len(sections)-1 {
			fmt.Fprintf(w, "  %s\n\n", dimStyle.Sprint(strings.Repeat("─", sectionRuleWidth)))
		}
	}

	renderSummary(w, r.Summary())
	return nil
}

func (t *TableRenderer) visible(s linttypes.Severity) bool {
	return t.Verbose || linttypes.IsNotable(s)
}

func (t *TableRenderer) sections(r *linttypes.Report) []section {
	var sections []section

	for _, path := range r.Files() {
		s := section{title: path}
		for i := range r.StructureFindings {
			sf := &r.StructureFindings[i]
			if sf.File == path && t.visible(sf.Severity) {
				s.items = append(s.items, item{structure: sf})
			}
		}
		s.items = append(s.items, t.budgetItems(r.Findings, path)...)
		if len(s.items) > 0 {
			sections = append(sections, s)
		}
	}

	aggregate := section{title: linttypes.AggregateLabel, items: t.budgetItems(r.Findings, linttypes.AggregateLabel)}
	if len(aggregate.items) > 0 {
		sections = append(sections, aggregate)
	}
	return sections
}

// budgetItems groups the visible findings of file by rule, rules in order
// of first appearance
func (t *TableRenderer) budgetItems(findings []linttypes.Finding, file string) []item {
	var items []item
	index := make(map[string]int)
	for _, f := range findings {
		if f.File != file || !t.visible(f.Severity) {
			continue
		}
		i, ok := index[f.Rule]
		if !ok {
			i = len(items)
			index[f.Rule] = i
			items = append(items, item{rule: f.Rule})
		}
		items[i].budget = append(items[i].budget, f)
	}
	return items
}

func (t *TableRenderer) renderSection(w io.Writer, s section) {
	fmt.Fprintf(w, "  %s\n", boldStyle.Sprint(s.title))

	for i, it := range s.items {
		last := i == len(s.items)-1
		connector, indent := "├─", "  "+dimStyle.Sprint("│")+"  "
		if last {
			connector, indent = "└─", "     "
		}

		if it.structure != nil {
			sf := it.structure
			fmt.Fprintf(w, "  %s %s   %s   %s\n",
				dimStyle.Sprint(connector), ruleName(sf.Rule, sf.Severity), sf.Message, status(sf.Severity))
		} else {
			fmt.Fprintf(w, "  %s %s\n", dimStyle.Sprint(connector), ruleName(it.rule, it.severity()))
			for _, line := range strings.Split(budgetTable(it.budget), "\n") {
				fmt.Fprintf(w, "%s%s\n", indent, line)
			}
		}

		if !last {
			fmt.Fprintf(w, "  %s\n", dimStyle.Sprint("│"))
		}
	}
}

func budgetTable(findings []linttypes.Finding) string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, []string{
			f.Model,
			FormatNumber(f.TokenCount),
			FormatNumber(f.WarningThreshold),
			FormatNumber(f.ErrorThreshold),
			statusText(f.Severity),
		})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	dim := lipgloss.AdaptiveColor{Light: "245", Dark: "241"}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(dim)).
		Headers("Model", "Tokens", "Warning", "Error", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := cell
			if col >= 1 && col <= 3 {
				style = style.Align(lipgloss.Right)
			}
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			if row < 0 || row >= len(findings) {
				return style
			}
			switch col {
			case 1, 4:
				style = style.Foreground(severityColor(findings[row].Severity))
				if findings[row].Severity != linttypes.Pass {
					style = style.Bold(true)
				}
			case 2, 3:
				style = style.Foreground(dim)
			}
			return style
		}).
		String()
}

func renderSummary(w io.Writer, s linttypes.Summary) {
	var parts []string
	if s.Passed > 0 {
		parts = append(parts, passStyle.Sprintf("%d passed", s.Passed))
	}
	if s.Warnings > 0 {
		parts = append(parts, color.New(color.FgYellow).Sprintf("%d warnings", s.Warnings))
	}
	if s.Errors > 0 {
		parts = append(parts, errorStyle.Sprintf("%d errors", s.Errors))
	}

	noun := "files"
	if s.Files == 1 {
		noun = "file"
	}
	fmt.Fprintf(w, "  %s %s across %d %s\n\n", boldStyle.Sprint("Results:"), strings.Join(parts, ", "), s.Files, noun)
}

func statusText(s linttypes.Severity) string {
	switch s {
	case linttypes.Warning:
		return "⚠ WARN"
	case linttypes.Error:
		return "✗ ERROR"
	default:
		return "✓ PASS"
	}
}

func status(s linttypes.Severity) string {
	return severityStyle(s).Sprint(statusText(s))
}

func ruleName(name string, s linttypes.Severity) string {
	return severityStyle(s).Sprint(name)
}

func severityStyle(s linttypes.Severity) *color.Color {
	switch s {
	case linttypes.Warning:
		return warnStyle
	case linttypes.Error:
		return errorStyle
	default:
		return passStyle
	}
}

func severityColor(s linttypes.Severity) lipgloss.Color {
	switch s {
	case linttypes.Warning:
		return lipgloss.Color("3")
	case linttypes.Error:
		return lipgloss.Color("1")
	default:
		return lipgloss.Color("2")
	}
}
