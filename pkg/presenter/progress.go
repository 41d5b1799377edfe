package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"
)

const progressWidth = 30

// ProgressBar renders a single line "Evaluating [bar] done/total file"
// indicator that is redrawn in place. It is a no-op when disabled.
type ProgressBar struct {
	mu      sync.Mutex
	out     io.Writer
	bar     progress.Model
	enabled bool
	drawn   int
}

// NewProgressBar creates a progress bar writing to out. It is only
// enabled when out is a terminal and the default presenter is not quiet.
func NewProgressBar(out io.Writer) *ProgressBar {
	return newProgressBar(out, isTerminal(out) && !IsQuiet())
}

func newProgressBar(out io.Writer, enabled bool) *ProgressBar {
	return &ProgressBar{
		out: out,
		bar: progress.New(
			progress.WithWidth(progressWidth),
			progress.WithoutPercentage(),
			progress.WithSolidFill("7"),
			progress.WithFillCharacters('━', '─'),
		),
		enabled: enabled,
	}
}

// Enabled reports whether the bar draws anything
func (p *ProgressBar) Enabled() bool {
	return p.enabled
}

// Update redraws the bar. Safe for concurrent use.
func (p *ProgressBar) Update(done, total int, file string) {
	if !p.enabled || total <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	line := fmt.Sprintf("  Evaluating %s %d/%d  %s",
		p.bar.ViewAs(float64(done)/float64(total)), done, total, strings.TrimPrefix(file, "./"))
	p.clear()
	fmt.Fprint(p.out, line)
	p.drawn = len(line)
}

// Clear erases the bar from the terminal
func (p *ProgressBar) Clear() {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
}

func (p *ProgressBar) clear() {
	if p.drawn == 0 {
		return
	}
	fmt.Fprint(p.out, "\r\033[2K")
	p.drawn = 0
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
