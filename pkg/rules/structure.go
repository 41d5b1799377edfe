package rules

import (
	"strings"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/skills"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
)

// Structural issue messages
const (
	IssueInvalidFrontmatter = "invalid frontmatter"
	IssueMissingName        = "missing name"
	IssueMissingDescription = "missing description"
	IssueEmptyBody          = "empty body"
)

// StructureIssues lists what is wrong with a skill file, empty if nothing.
// Without a closed frontmatter block nothing else is checked.
func StructureIssues(f *skills.File) []string {
	if !f.HasFrontmatter {
		return []string{IssueInvalidFrontmatter}
	}

	var issues []string
	if _, ok := f.Name(); !ok {
		issues = append(issues, IssueMissingName)
	}
	if _, ok := f.Description(); !ok {
		issues = append(issues, IssueMissingDescription)
	}
	if strings.TrimSpace(f.Body) == "" {
		issues = append(issues, IssueEmptyBody)
	}
	return issues
}

// SkillStructure grades f for the skill-structure rule
func SkillStructure(f *skills.File) linttypes.StructureFinding {
	issues := StructureIssues(f)
	if len(issues) == 0 {
		return linttypes.StructureFinding{
			Rule:     config.RuleSkillStructure,
			File:     f.Path,
			Message:  "valid",
			Severity: linttypes.Pass,
		}
	}

	return linttypes.StructureFinding{
		Rule:     config.RuleSkillStructure,
		File:     f.Path,
		Message:  strings.Join(issues, ", "),
		Severity: linttypes.Error,
	}
}
