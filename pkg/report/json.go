package report

import (
	"encoding/json"
	"io"

	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
)

// JSONRenderer writes the report as a single indented JSON document
type JSONRenderer struct{}

type jsonReport struct {
	Findings          []linttypes.Finding          `json:"findings"`
	StructureFindings []linttypes.StructureFinding `json:"structureFindings"`
	Summary           linttypes.Summary            `json:"summary"`
	WorstSeverity     linttypes.Severity           `json:"worstSeverity"`
}

// Render implements Renderer
func (JSONRenderer) Render(w io.Writer, r *linttypes.Report) error {
	r = linttypes.NewReport(r.Findings, r.StructureFindings)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{
		Findings:          r.Findings,
		StructureFindings: r.StructureFindings,
		Summary:           r.Summary(),
		WorstSeverity:     r.WorstSeverity(),
	}); err != nil {
		return errors.Wrap(err, "failed to write JSON report")
	}
	return nil
}
