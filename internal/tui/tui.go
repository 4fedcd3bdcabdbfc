// Package tui is the live-status view behind `phonon live`: compile
// state, transport position, stereo level meters, and the most recent
// diagnostics. It is deliberately not an editor — the source file stays
// in whatever editor the user already lives in (§1 scope); this view
// only shows what the engine is doing with it.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/phonon-lang/phonon/internal/diag"
	"github.com/phonon-lang/phonon/internal/runtime"
)

// CompileResult is sent into the program by the watcher/compile thread
// after every rebuild attempt.
type CompileResult struct {
	Err  error
	When time.Time
}

type tickMsg time.Time

const maxDiagLines = 6

// Model is the bubbletea model for the live view.
type Model struct {
	eng    *runtime.Engine
	source string

	meterL progress.Model
	meterR progress.Model

	width, height int
	lastCompile   CompileResult
	compiledOnce  bool
	diags         []diag.Diagnostic
	overruns      int
}

// New builds the live view for eng playing source.
func New(eng *runtime.Engine, source string) Model {
	mk := func() progress.Model {
		p := progress.New(progress.WithDefaultGradient())
		p.Width = 40
		p.ShowPercentage = false
		return p
	}
	return Model{eng: eng, source: source, meterL: mk(), meterR: mk()}
}

// NewProgram wraps the model in a tea.Program the caller can Send
// CompileResults into.
func NewProgram(eng *runtime.Engine, source string) *tea.Program {
	return tea.NewProgram(New(eng, source))
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 14
		if w < 10 {
			w = 10
		}
		if w > 60 {
			w = 60
		}
		m.meterL.Width = w
		m.meterR.Width = w
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil

	case CompileResult:
		m.lastCompile = msg
		m.compiledOnce = true
		return m, nil

	case tickMsg:
		for _, d := range m.eng.Diags().Drain() {
			if d.Kind == diag.KindBufferOverrun {
				m.overruns++
				continue
			}
			m.diags = append(m.diags, d)
			if len(m.diags) > maxDiagLines {
				m.diags = m.diags[len(m.diags)-maxDiagLines:]
			}
		}
		return m, m.tick()
	}
	return m, nil
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	diagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// meterColor maps a level to a green→red hue, readable on light and
// dark backgrounds alike.
func meterColor(level float64) lipgloss.Color {
	if level > 1 {
		level = 1
	}
	hue := 130 * (1 - level)
	c := colorful.Hsv(hue, 0.9, 0.9)
	if !termenv.HasDarkBackground() {
		c = colorful.Hsv(hue, 0.9, 0.6)
	}
	return lipgloss.Color(c.Hex())
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("phonon"))
	b.WriteString(dimStyle.Render(" live · " + m.source))
	b.WriteString("\n\n")

	switch {
	case !m.compiledOnce:
		b.WriteString(dimStyle.Render("waiting for first compile…"))
	case m.lastCompile.Err != nil:
		d := diag.FromError(m.lastCompile.Err)
		loc := ""
		if d.Line > 0 {
			loc = fmt.Sprintf(" (line %d)", d.Line)
		}
		b.WriteString(errStyle.Render("✗ " + string(d.Kind) + loc))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  " + d.Message))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  previous graph still playing"))
	default:
		b.WriteString(okStyle.Render(fmt.Sprintf("✓ compiled %s", m.lastCompile.When.Format("15:04:05"))))
	}
	b.WriteString("\n\n")

	cps := m.eng.Cps()
	pos := float64(m.eng.SamplePos()) / m.eng.SampleRate()
	cycle := pos * cps
	b.WriteString(fmt.Sprintf("cycle %8.2f   cps %.3f   %s\n", cycle, cps, fmtDuration(pos)))
	if m.overruns > 0 {
		b.WriteString(diagStyle.Render(fmt.Sprintf("overruns %d — consider raising PHONON_BUFFER_SIZE", m.overruns)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	l, r := m.eng.Peaks()
	lStyle := lipgloss.NewStyle().Foreground(meterColor(l))
	rStyle := lipgloss.NewStyle().Foreground(meterColor(r))
	b.WriteString("L " + lStyle.Render(m.meterL.ViewAs(clamp01(l))) + "\n")
	b.WriteString("R " + rStyle.Render(m.meterR.ViewAs(clamp01(r))) + "\n")

	if len(m.diags) > 0 {
		var lines []string
		for _, d := range m.diags {
			lines = append(lines, diagStyle.Render(string(d.Kind))+" "+d.Message)
		}
		b.WriteString("\n")
		b.WriteString(borderStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit · edits hot-swap on save"))
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fmtDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
