// Package report renders lint reports for humans (tables) and machines (JSON).
package report

import (
	"io"
	"strconv"
	"strings"

	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
)

// Output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ErrUnknownFormat is returned by New for formats other than table and json
var ErrUnknownFormat = errors.New("unknown output format")

// Renderer writes a report to w
type Renderer interface {
	Render(w io.Writer, r *linttypes.Report) error
}

// New returns the renderer for format. An empty format means table.
func New(format string, verbose bool) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return &TableRenderer{Verbose: verbose}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "'%s' (expected %s or %s)", format, FormatTable, FormatJSON)
	}
}

// FormatNumber formats n with comma thousands separators
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
