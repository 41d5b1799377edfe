package lint

import (
	"sort"

	"github.com/pkg/errors"
)

// AggregateLabel stands in for the file name of skill-index-budget
// findings, which cover every file at once
const AggregateLabel = "(skill index)"

// Severity is the outcome of a rule check, ordered Pass < Warning < Error
type Severity int

const (
	Pass Severity = iota
	Warning
	Error
)

// String returns the short status label
func (s Severity) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Warning:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "PASS":
		*s = Pass
	case "WARN":
		*s = Warning
	case "ERROR":
		*s = Error
	default:
		return errors.Errorf("unknown severity %q", string(text))
	}
	return nil
}

// SeverityFor grades count against a warning/error threshold pair.
// Reaching a threshold counts as crossing it.
func SeverityFor(count, warning, errorAt int) Severity {
	switch {
	case count >= errorAt:
		return Error
	case count >= warning:
		return Warning
	default:
		return Pass
	}
}

// Finding is the result of a token budget rule for one file and model
type Finding struct {
	Rule             string   `json:"rule"`
	File             string   `json:"file"`
	Model            string   `json:"model"`
	TokenCount       int      `json:"tokenCount"`
	WarningThreshold int      `json:"warningThreshold"`
	ErrorThreshold   int      `json:"errorThreshold"`
	Severity         Severity `json:"severity"`
}

// StructureFinding is the result of a non-budget rule for one file
type StructureFinding struct {
	Rule     string   `json:"rule"`
	File     string   `json:"file"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Report aggregates the findings of a lint run
type Report struct {
	Findings          []Finding          `json:"findings"`
	StructureFindings []StructureFinding `json:"structureFindings"`
}

// NewReport builds a report, normalising nil slices to empty ones
func NewReport(findings []Finding, structure []StructureFinding) *Report {
	if findings == nil {
		findings = []Finding{}
	}
	if structure == nil {
		structure = []StructureFinding{}
	}
	return &Report{Findings: findings, StructureFindings: structure}
}

// Empty reports whether there are no findings at all
func (r *Report) Empty() bool {
	return len(r.Findings) == 0 && len(r.StructureFindings) == 0
}

// WorstSeverity returns the highest severity across all findings, Pass if none
func (r *Report) WorstSeverity() Severity {
	worst := Pass
	for _, f := range r.Findings {
		worst = max(worst, f.Severity)
	}
	for _, f := range r.StructureFindings {
		worst = max(worst, f.Severity)
	}
	return worst
}

// Summary counts findings by severity
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	Files    int `json:"files"`
}

// Summary tallies both finding kinds. Files counts distinct file paths,
// excluding the aggregate label.
func (r *Report) Summary() Summary {
	var s Summary
	files := make(map[string]struct{})

	tally := func(file string, severity Severity) {
		s.Total++
		switch severity {
		case Error:
			s.Errors++
		case Warning:
			s.Warnings++
		default:
			s.Passed++
		}
		if file != AggregateLabel {
			files[file] = struct{}{}
		}
	}

	for _, f := range r.Findings {
		tally(f.File, f.Severity)
	}
	for _, f := range r.StructureFindings {
		tally(f.File, f.Severity)
	}

	s.Files = len(files)
	return s
}

// Files returns the file paths in first-seen order: structure findings
// first, then budget findings. The aggregate label is left out.
func (r *Report) Files() []string {
	var paths []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if path == AggregateLabel {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	for _, f := range r.StructureFindings {
		add(f.File)
	}
	for _, f := range r.Findings {
		add(f.File)
	}
	return paths
}

// SortedFiles returns Files in lexical order
func (r *Report) SortedFiles() []string {
	paths := r.Files()
	sort.Strings(paths)
	return paths
}

// IsNotable reports whether a severity is shown in non-verbose output
func IsNotable(s Severity) bool {
	return s == Warning || s == Error
}
