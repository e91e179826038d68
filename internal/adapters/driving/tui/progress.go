// Package tui renders live bootstrap progress in the terminal: one
// line per step with a spinner for the running step and per-step
// durations once finished.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/monetci/monetup/internal/core/domain"
	"github.com/monetci/monetup/internal/core/ports/driving"
)

// Ensure Progress implements the interface.
var _ driving.StepObserver = (*Progress)(nil)

// Messages delivered to the model while the pipeline runs.
type (
	stepStartedMsg struct {
		step domain.Step
	}

	stepFinishedMsg struct {
		step domain.Step
		err  error
	}

	stepSkippedMsg struct {
		step   domain.Step
		reason string
	}

	doneMsg struct {
		err error
	}
)

type stepState int

const (
	statePending stepState = iota
	stateRunning
	stateCompleted
	stateFailed
	stateSkipped
)

// stepLine is the displayed state of one step.
type stepLine struct {
	step      domain.Step
	state     stepState
	startedAt time.Time
	duration  time.Duration
	note      string
}

type styles struct {
	title     lipgloss.Style
	running   lipgloss.Style
	completed lipgloss.Style
	failed    lipgloss.Style
	muted     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		running:   lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		completed: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

// model renders the step list. It implements tea.Model.
type model struct {
	spinner spinner.Model
	styles  styles
	lines   []stepLine
	cancel  func()
	done    bool
	err     error
}

// Ensure model implements tea.Model.
var _ tea.Model = model{}

func newModel(steps []domain.Step, cancel func()) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	st := defaultStyles()
	s.Style = st.running

	lines := make([]stepLine, len(steps))
	for i, step := range steps {
		lines[i] = stepLine{step: step}
	}
	return model{spinner: s, styles: st, lines: lines, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, nil

	case stepStartedMsg:
		m.update(msg.step.ID, func(l *stepLine) {
			l.state = stateRunning
			l.startedAt = time.Now()
		})
		return m, nil

	case stepFinishedMsg:
		m.update(msg.step.ID, func(l *stepLine) {
			l.duration = time.Since(l.startedAt)
			if msg.err != nil {
				l.state = stateFailed
				l.note = msg.err.Error()
			} else {
				l.state = stateCompleted
			}
		})
		return m, nil

	case stepSkippedMsg:
		m.update(msg.step.ID, func(l *stepLine) {
			l.state = stateSkipped
			l.note = msg.reason
		})
		return m, nil

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("Bootstrapping MonetDB test environment"))
	b.WriteString("\n\n")

	for _, l := range m.lines {
		b.WriteString(m.renderLine(l))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(m.styles.failed.Render("Bootstrap failed: " + m.err.Error()))
		} else {
			b.WriteString(m.styles.completed.Render("Bootstrap complete"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderLine(l stepLine) string {
	switch l.state {
	case stateRunning:
		return fmt.Sprintf("%s %s", m.spinner.View(), l.step.Description)
	case stateCompleted:
		return fmt.Sprintf("%s %s %s",
			m.styles.completed.Render("✓"),
			l.step.Description,
			m.styles.muted.Render("("+l.duration.Round(time.Millisecond).String()+")"))
	case stateFailed:
		return fmt.Sprintf("%s %s: %s",
			m.styles.failed.Render("✗"),
			l.step.Description,
			m.styles.failed.Render(l.note))
	case stateSkipped:
		return m.styles.muted.Render(fmt.Sprintf("- %s (%s)", l.step.Description, l.note))
	default:
		return m.styles.muted.Render("• " + l.step.Description)
	}
}

func (m *model) update(id domain.StepID, fn func(*stepLine)) {
	for i := range m.lines {
		if m.lines[i].step.ID == id {
			fn(&m.lines[i])
			return
		}
	}
}

// Progress is a StepObserver that forwards pipeline events to a
// running bubbletea program.
type Progress struct {
	program *tea.Program
}

// NewProgress creates a progress display for the given plan. The
// cancel function is invoked when the user interrupts with ctrl+c.
func NewProgress(steps []domain.Step, cancel func()) *Progress {
	return &Progress{
		program: tea.NewProgram(newModel(steps, cancel)),
	}
}

// Run blocks rendering the display until Done is called. It must run
// on the goroutine that owns the terminal.
func (p *Progress) Run() error {
	_, err := p.program.Run()
	return err
}

// Done ends the display. The error, if any, is shown as the final
// status line.
func (p *Progress) Done(err error) {
	p.program.Send(doneMsg{err: err})
}

// StepStarted implements driving.StepObserver.
func (p *Progress) StepStarted(step domain.Step) {
	p.program.Send(stepStartedMsg{step: step})
}

// StepFinished implements driving.StepObserver.
func (p *Progress) StepFinished(step domain.Step, err error) {
	p.program.Send(stepFinishedMsg{step: step, err: err})
}

// StepSkipped implements driving.StepObserver.
func (p *Progress) StepSkipped(step domain.Step, reason string) {
	p.program.Send(stepSkippedMsg{step: step, reason: reason})
}
