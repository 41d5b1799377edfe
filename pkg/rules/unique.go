package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/skills"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
)

const descriptionPreviewLen = 40

type uniqueField struct {
	rule  string
	label string
	value func(*skills.File) (string, bool)
	show  func(string) string
}

var (
	uniqueNameField = uniqueField{
		rule:  config.RuleUniqueName,
		label: "name",
		value: (*skills.File).Name,
		show:  func(s string) string { return s },
	}
	uniqueDescriptionField = uniqueField{
		rule:  config.RuleUniqueDescription,
		label: "description",
		value: (*skills.File).Description,
		show:  truncate,
	}
)

// UniqueFields checks that frontmatter names and descriptions are not
// shared between files, for whichever of unique-name and
// unique-description is enabled. Files lacking the field are skipped.
// Findings follow file order, name before description for each file.
func UniqueFields(cfg *config.Config, files []*skills.File) []linttypes.StructureFinding {
	var fields []uniqueField
	if cfg.UniqueNameEnabled() {
		fields = append(fields, uniqueNameField)
	}
	if cfg.UniqueDescriptionEnabled() {
		fields = append(fields, uniqueDescriptionField)
	}
	if len(fields) == 0 {
		return nil
	}

	owners := make([]map[string][]string, len(fields))
	for i, field := range fields {
		owners[i] = make(map[string][]string)
		for _, f := range files {
			if v, ok := field.value(f); ok {
				owners[i][v] = append(owners[i][v], f.Path)
			}
		}
	}

	var findings []linttypes.StructureFinding
	for _, f := range files {
		for i, field := range fields {
			v, ok := field.value(f)
			if !ok {
				continue
			}
			findings = append(findings, field.check(f.Path, v, owners[i][v]))
		}
	}
	return findings
}

func (u uniqueField) check(file, value string, owners []string) linttypes.StructureFinding {
	if len(owners) <= 1 {
		return linttypes.StructureFinding{
			Rule:     u.rule,
			File:     file,
			Message:  "unique",
			Severity: linttypes.Pass,
		}
	}

	others := make([]string, 0, len(owners)-1)
	for _, owner := range owners {
		if owner != file {
			others = append(others, owner)
		}
	}

	return linttypes.StructureFinding{
		Rule:     u.rule,
		File:     file,
		Message:  fmt.Sprintf("duplicate %s \"%s\" (also in %s)", u.label, u.show(value), strings.Join(others, ", ")),
		Severity: linttypes.Error,
	}
}

// truncate shortens s to at most 40 bytes plus "...", never splitting a rune
func truncate(s string) string {
	if len(s) <= descriptionPreviewLen {
		return s
	}
	cut := descriptionPreviewLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
