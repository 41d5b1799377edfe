// Package skills parses skill files: markdown documents (conventionally
// SKILL.md) that open with a frontmatter block delimited by "---" lines and
// carrying at least a name and a description for the agent that loads them.
package skills

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	// FileName is the conventional skill file name
	FileName = "SKILL.md"

	delimiter = "---"
	bom       = "\ufeff"
)

// Frontmatter fields checked by the structural rules
const (
	FieldName        = "name"
	FieldDescription = "description"
)

// File is a parsed skill file
type File struct {
	Path    string
	Content string

	// Frontmatter is the text between the delimiters, joined with "\n".
	// HasFrontmatter is false when either delimiter is missing.
	Frontmatter    string
	HasFrontmatter bool

	// Body is everything after the closing delimiter
	Body string
}

// Name returns the frontmatter name, if set
func (f *File) Name() (string, bool) {
	if !f.HasFrontmatter {
		return "", false
	}
	return ExtractField(f.Frontmatter, FieldName)
}

// Description returns the frontmatter description, if set
func (f *File) Description() (string, bool) {
	if !f.HasFrontmatter {
		return "", false
	}
	return ExtractField(f.Frontmatter, FieldDescription)
}

// Parse splits content into frontmatter and body
func Parse(path, content string) *File {
	f := &File{Path: path, Content: content}
	f.Frontmatter, f.Body, f.HasFrontmatter = split(content)
	return f
}

// ReadFile reads and parses the skill file at path
func ReadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file '%s'", path)
	}
	return Parse(path, string(content)), nil
}

// ExtractFrontmatter returns the frontmatter of content. The first line,
// after an optional UTF-8 BOM, must be "---"; lines are collected until the
// closing "---". Surrounding whitespace on delimiter lines is ignored.
func ExtractFrontmatter(content string) (string, bool) {
	fm, _, ok := split(content)
	return fm, ok
}

// ExtractBody returns the text after the closing frontmatter delimiter
func ExtractBody(content string) (string, bool) {
	_, body, ok := split(content)
	return body, ok
}

// ExtractField returns the value of the first "field:" line with a
// non-empty value, trimmed. Indented or quoted keys do not count.
func ExtractField(frontmatter, field string) (string, bool) {
	prefix := field + ":"
	for _, line := range splitLines(frontmatter) {
		rest, ok := strings.CutPrefix(line, prefix)
		if !ok {
			continue
		}
		if value := strings.TrimSpace(rest); value != "" {
			return value, true
		}
	}
	return "", false
}

func split(content string) (frontmatter, body string, ok bool) {
	lines := splitLines(strings.TrimPrefix(content, bom))
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return "", "", false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}

	return "", "", false
}

// splitLines splits on "\n", drops a trailing "\r" from each line and does
// not yield an empty final line for text ending in a newline.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
