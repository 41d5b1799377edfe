// Package tui holds the interactive terminal UI used by `skills-lint init`
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jingkaihe/skills-lint/pkg/config"
	"github.com/pkg/errors"
)

// ErrAborted is returned when the user quits the wizard before finishing
var ErrAborted = errors.New("aborted")

// WizardResult holds the answers collected by the init wizard
type WizardResult struct {
	Pattern string
	Models  []string
	Rules   []string
}

type wizardStep int

const (
	stepPattern wizardStep = iota
	stepModels
	stepRules
	stepDone
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#7aa2f7", Dark: "#7aa2f7"})
	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9ece6a", Dark: "#9ece6a"})
	hintStyle = lipgloss.NewStyle().Faint(true)
	errStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#f7768e", Dark: "#f7768e"})
)

// multiSelect is a checkbox list navigated with the arrow keys
type multiSelect struct {
	options  []string
	selected []bool
	cursor   int
}

func newMultiSelect(options []string) multiSelect {
	selected := make([]bool, len(options))
	for i := range selected {
		selected[i] = true
	}
	return multiSelect{options: options, selected: selected}
}

func (s *multiSelect) up() {
	if s.cursor > 0 {
		s.cursor--
	}
}

func (s *multiSelect) down() {
	if s.cursor < len(s.options)-1 {
		s.cursor++
	}
}

func (s *multiSelect) toggle() {
	if len(s.options) > 0 {
		s.selected[s.cursor] = !s.selected[s.cursor]
	}
}

func (s *multiSelect) toggleAll() {
	all := true
	for _, v := range s.selected {
		all = all && v
	}
	for i := range s.selected {
		s.selected[i] = !all
	}
}

func (s multiSelect) values() []string {
	var values []string
	for i, v := range s.selected {
		if v {
			values = append(values, s.options[i])
		}
	}
	return values
}

func (s multiSelect) view(b *strings.Builder) {
	for i, option := range s.options {
		cursor := "  "
		if i == s.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if s.selected[i] {
			check = "[x]"
		}
		fmt.Fprintf(b, "%s%s %s\n", cursor, check, option)
	}
}

// WizardModel is the bubbletea model of the init wizard
type WizardModel struct {
	step    wizardStep
	input   textinput.Model
	models  multiSelect
	rules   multiSelect
	err     string
	aborted bool
}

// NewWizardModel creates the wizard with every model and rule preselected
func NewWizardModel() WizardModel {
	input := textinput.New()
	input.Placeholder = config.DefaultPattern
	input.Prompt = "> "
	input.Focus()

	return WizardModel{
		step:   stepPattern,
		input:  input,
		models: newMultiSelect(config.SupportedModelNames()),
		rules:  newMultiSelect(config.OptionalRules),
	}
}

// Init implements tea.Model
func (m WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.step == stepPattern {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	}

	switch m.step {
	case stepPattern:
		if keyMsg.Type == tea.KeyEnter {
			m.input.Blur()
			m.step = stepModels
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case stepModels:
		if keyMsg.Type == tea.KeyEnter {
			if len(m.models.values()) == 0 {
				m.err = "select at least one model"
				return m, nil
			}
			m.err = ""
			m.step = stepRules
			return m, nil
		}
		m.models = handleSelectKey(m.models, keyMsg)
		m.err = ""

	case stepRules:
		if keyMsg.Type == tea.KeyEnter {
			m.step = stepDone
			return m, tea.Quit
		}
		m.rules = handleSelectKey(m.rules, keyMsg)
	}

	return m, nil
}

func handleSelectKey(s multiSelect, msg tea.KeyMsg) multiSelect {
	switch msg.Type {
	case tea.KeyUp:
		s.up()
	case tea.KeyDown:
		s.down()
	case tea.KeySpace:
		s.toggle()
	case tea.KeyRunes:
		switch msg.String() {
		case "k":
			s.up()
		case "j":
			s.down()
		case " ":
			s.toggle()
		case "a":
			s.toggleAll()
		}
	}
	return s
}

// View implements tea.Model
func (m WizardModel) View() string {
	if m.step == stepDone || m.aborted {
		return ""
	}

	var b strings.Builder
	switch m.step {
	case stepPattern:
		b.WriteString(titleStyle.Render("Glob pattern for skill files") + "\n")
		b.WriteString(m.input.View() + "\n")
		b.WriteString(hintStyle.Render("enter to accept, empty for "+config.DefaultPattern) + "\n")
	case stepModels:
		b.WriteString(titleStyle.Render("Models to check") + "\n")
		m.models.view(&b)
		if m.err != "" {
			b.WriteString(errStyle.Render(m.err) + "\n")
		}
		b.WriteString(hintStyle.Render("space to toggle, a for all, enter to continue") + "\n")
	case stepRules:
		b.WriteString(titleStyle.Render("Optional rules (token-limit is always on)") + "\n")
		m.rules.view(&b)
		b.WriteString(hintStyle.Render("space to toggle, a for all, enter to finish") + "\n")
	}
	return b.String()
}

// Done reports whether every step was answered
func (m WizardModel) Done() bool {
	return m.step == stepDone
}

// Result returns the collected answers. An empty pattern means the default.
func (m WizardModel) Result() WizardResult {
	pattern := strings.TrimSpace(m.input.Value())
	if pattern == "" {
		pattern = config.DefaultPattern
	}
	return WizardResult{
		Pattern: pattern,
		Models:  m.models.values(),
		Rules:   m.rules.values(),
	}
}

// RunWizard runs the init wizard on in/out until the user finishes or quits
func RunWizard(ctx context.Context, in io.Reader, out io.Writer) (WizardResult, error) {
	p := tea.NewProgram(NewWizardModel(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	result, err := p.Run()
	if err != nil {
		return WizardResult{}, errors.Wrap(err, "error running init wizard")
	}

	model, ok := result.(WizardModel)
	if !ok || !model.Done() {
		return WizardResult{}, ErrAborted
	}
	return model.Result(), nil
}
