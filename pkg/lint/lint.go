// Package lint runs the configured rules over skill files and collects
// the findings into a report.
package lint

import (
	"context"
	"runtime"
	"sync"

	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/jingkaihe/skills-lint/pkg/discovery"
	"github.com/jingkaihe/skills-lint/pkg/logger"
	"github.com/jingkaihe/skills-lint/pkg/rules"
	"github.com/jingkaihe/skills-lint/pkg/skills"
	"github.com/jingkaihe/skills-lint/pkg/tokenizer"
	linttypes "github.com/jingkaihe/skills-lint/pkg/types/lint"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrNoConfig is returned when a Linter is created without a config
var ErrNoConfig = errors.New("no lint config")

// ProgressFunc is called after each file is linted. done counts finished
// files, file is the one that just finished.
type ProgressFunc func(done, total int, file string)

// Linter lints skill files against a config
type Linter struct {
	cfg      *config.Config
	counter  tokenizer.Counter
	jobs     int
	single   bool
	progress ProgressFunc
}

// Option configures a Linter
type Option func(*Linter)

// WithCounter sets the token counter, tokenizer.BPECounter by default.
// Pass a *cache.TokenCache to reuse persisted counts.
func WithCounter(counter tokenizer.Counter) Option {
	return func(l *Linter) {
		if counter != nil {
			l.counter = counter
		}
	}
}

// WithJobs bounds the number of files linted at once. Values below one
// mean runtime.NumCPU().
func WithJobs(jobs int) Option {
	return func(l *Linter) {
		if jobs > 0 {
			l.jobs = jobs
		}
	}
}

// WithProgress registers a progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(l *Linter) {
		l.progress = fn
	}
}

// WithSingleFile disables the rules that compare files with each other
// (skill-index-budget, unique-name and unique-description).
func WithSingleFile(single bool) Option {
	return func(l *Linter) {
		l.single = single
	}
}

// New creates a Linter for cfg
func New(cfg *config.Config, opts ...Option) (*Linter, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}

	l := &Linter{
		cfg:     cfg,
		counter: tokenizer.BPECounter{},
		jobs:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// FileResult holds the per-file findings of one skill file
type FileResult struct {
	File              *skills.File
	Findings          []linttypes.Finding
	StructureFindings []linttypes.StructureFinding
}

// Discover expands the config patterns into the files to lint
func (l *Linter) Discover(ctx context.Context) ([]string, error) {
	files, err := discovery.Discover(l.cfg.Patterns)
	if err != nil {
		return nil, err
	}
	logger.G(ctx).WithField("patterns", l.cfg.Patterns).Debugf("discovered %d file(s)", len(files))
	return files, nil
}

// LintFile reads path and applies the per-file rules to it
func (l *Linter) LintFile(ctx context.Context, path string) (*FileResult, error) {
	f, err := skills.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.lint(ctx, f)
}

func (l *Linter) lint(ctx context.Context, f *skills.File) (*FileResult, error) {
	log := logger.G(ctx).WithField("file", f.Path)

	result := &FileResult{File: f}

	findings, err := rules.TokenLimit(l.cfg, f, l.counter)
	if err != nil {
		return nil, err
	}
	result.Findings = append(result.Findings, findings...)

	findings, err = rules.FrontmatterLimit(l.cfg, f, l.counter)
	if err != nil {
		return nil, err
	}
	result.Findings = append(result.Findings, findings...)

	if l.cfg.SkillStructureEnabled() {
		result.StructureFindings = append(result.StructureFindings, rules.SkillStructure(f))
	}

	log.WithField("findings", len(result.Findings)+len(result.StructureFindings)).Debug("linted file")
	return result, nil
}

// Run lints files and returns the combined report. Files are linted
// concurrently but findings keep the order of files. Unless the Linter is
// in single file mode, the cross-file rules run afterwards. The first error
// cancels the remaining work.
func (l *Linter) Run(ctx context.Context, files []string) (*linttypes.Report, error) {
	results := make([]*FileResult, len(files))

	var (
		mu   sync.Mutex
		done int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			result, err := l.LintFile(gCtx, path)
			if err != nil {
				return err
			}
			results[i] = result

			if l.progress != nil {
				mu.Lock()
				done++
				l.progress(done, len(files), path)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		findings  []linttypes.Finding
		structure []linttypes.StructureFinding
		parsed    = make([]*skills.File, 0, len(results))
	)
	for _, r := range results {
		findings = append(findings, r.Findings...)
		structure = append(structure, r.StructureFindings...)
		parsed = append(parsed, r.File)
	}

	if !l.single {
		aggregate, err := rules.SkillIndexBudget(l.cfg, parsed, l.counter)
		if err != nil {
			return nil, err
		}
		findings = append(findings, aggregate...)
		structure = append(structure, rules.UniqueFields(l.cfg, parsed)...)
	}

	return linttypes.NewReport(findings, structure), nil
}

// RunSingle lints one file without the cross-file rules
func (l *Linter) RunSingle(ctx context.Context, path string) (*linttypes.Report, error) {
	single := *l
	single.single = true
	return single.Run(ctx, []string{path})
}
