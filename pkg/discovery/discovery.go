// Package discovery expands the configured glob patterns into the list of
// skill files to lint.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ErrInvalidPattern is returned when a glob pattern cannot be parsed
var ErrInvalidPattern = errors.New("invalid glob pattern")

const currentDir = "." + string(filepath.Separator)

// Discover returns the files matching any of patterns, sorted and
// deduplicated. Patterns support ** for recursive matching. A pattern
// matching nothing is not an error. Files found through a pattern that
// starts with "./" keep that prefix, so report labels read as written in
// the config.
func Discover(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return nil, errors.Wrapf(ErrInvalidPattern, "'%s'", pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "glob iteration error for '%s'", pattern)
		}

		relative := strings.HasPrefix(filepath.FromSlash(pattern), currentDir)
		for _, match := range matches {
			key := filepath.Clean(match)
			if _, ok := seen[key]; ok {
				continue
			}
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			seen[key] = struct{}{}
			if relative && !filepath.IsAbs(key) {
				match = currentDir + key
			}
			files = append(files, match)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Match reports whether file matches pattern. Both sides are cleaned first,
// so "./a/SKILL.md" and "a/SKILL.md" are the same file.
func Match(pattern, file string) bool {
	p := filepath.ToSlash(filepath.Clean(pattern))
	f := filepath.ToSlash(filepath.Clean(file))
	if p == f {
		return true
	}
	matched, err := doublestar.Match(p, f)
	return err == nil && matched
}

// Base returns the non-magic leading directory of pattern, the root a
// recursive watch has to cover.
func Base(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(filepath.Clean(pattern)))
	if base == "" {
		return "."
	}
	return filepath.FromSlash(base)
}
