// Package tui is the interactive front end for a pipeline run: per-stage
// status, a rolling log, and a stop key. The pipeline itself runs as one
// unit of work in a separate goroutine; the UI never interleaves commands.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pipewright/pipewright/internal/executor"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/report"
)

const maxLogLines = 8

// StageEventMsg wraps a pipeline stage event. Exported so tests can inject
// it directly into Model.Update.
type StageEventMsg pipeline.Event

// RunDoneMsg is sent when the pipeline run has finished and the report is
// generated.
type RunDoneMsg struct {
	Outcome pipeline.Outcome
	Report  *report.Report
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Model is the Bubbletea model for one pipeline run.
type Model struct {
	project  string
	spinner  spinner.Model
	order    []string
	statuses map[string]executor.Status
	logLines []string
	events   <-chan tea.Msg
	cancel   context.CancelFunc
	stopping bool
	done     bool
	outcome  pipeline.Outcome
	report   *report.Report
}

// NewModel creates the run view. Events from the pipeline goroutine arrive
// on the events channel; cancel requests a coarse stop between commands.
func NewModel(project string, events <-chan tea.Msg, cancel context.CancelFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		project: project,
		spinner: sp,
		order:   []string{pipeline.StageBuild, pipeline.StageTest, pipeline.StageDeploy},
		statuses: map[string]executor.Status{
			pipeline.StageBuild:  executor.StatusPending,
			pipeline.StageTest:   executor.StatusPending,
			pipeline.StageDeploy: executor.StatusPending,
		},
		events: events,
		cancel: cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForMsg(m.events))
}

func waitForMsg(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "s", "q", "ctrl+c":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping {
				m.stopping = true
				m.cancel()
				m.logLines = append(m.logLines, "stop requested, waiting for the current command to finish")
			}
		}
		return m, nil

	case StageEventMsg:
		ev := pipeline.Event(msg)
		m.statuses[ev.Stage] = ev.Status
		switch ev.Status {
		case executor.StatusRunning:
			m.logLines = append(m.logLines, fmt.Sprintf("%s stage started", ev.Stage))
		case executor.StatusFailed:
			m.logLines = append(m.logLines, fmt.Sprintf("%s stage failed at step %d", ev.Stage, len(ev.Results)))
		case executor.StatusSuccess:
			m.logLines = append(m.logLines, fmt.Sprintf("%s stage completed (%d steps)", ev.Stage, len(ev.Results)))
		}
		return m, waitForMsg(m.events)

	case RunDoneMsg:
		m.done = true
		m.outcome = msg.Outcome
		m.report = msg.Report
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pipewright · "+m.project) + "\n\n")

	for _, stage := range m.order {
		b.WriteString("  " + m.stageLine(stage) + "\n")
	}
	b.WriteString("\n")

	start := 0
	if len(m.logLines) > maxLogLines {
		start = len(m.logLines) - maxLogLines
	}
	for _, line := range m.logLines[start:] {
		b.WriteString(dimStyle.Render("  "+line) + "\n")
	}

	if m.stopping {
		b.WriteString("\n" + pendingStyle.Render("  stopping...") + "\n")
	} else {
		b.WriteString("\n" + dimStyle.Render("  s stop · q quit") + "\n")
	}
	return b.String()
}

func (m Model) stageLine(stage string) string {
	switch m.statuses[stage] {
	case executor.StatusRunning:
		return m.spinner.View() + " " + stage
	case executor.StatusSuccess:
		return successStyle.Render("✓") + " " + stage
	case executor.StatusFailed:
		return failStyle.Render("✗") + " " + stage
	default:
		return pendingStyle.Render("•") + " " + stage + dimStyle.Render(" (pending)")
	}
}

// Run drives one pipeline run inside the terminal UI and returns the run
// outcome and the generated report.
func Run(ctx context.Context, runner *pipeline.Runner, project string) (pipeline.Outcome, *report.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Room for every stage event plus the final done message, so the
	// pipeline goroutine never blocks on a slow UI.
	events := make(chan tea.Msg, 16)
	runner.Observer = func(ev pipeline.Event) {
		events <- StageEventMsg(ev)
	}

	go func() {
		outcome := runner.Run(ctx)
		rep := report.Generate(project, outcome.Build, outcome.Test, outcome.Deploy)
		events <- RunDoneMsg{Outcome: outcome, Report: rep}
	}()

	final, err := tea.NewProgram(NewModel(project, events, cancel)).Run()
	if err != nil {
		return pipeline.Outcome{}, nil, fmt.Errorf("running ui: %w", err)
	}

	m := final.(Model)
	if m.report == nil {
		// The UI exited before the run finished; wait out the pipeline so no
		// process handle is abandoned.
		cancel()
		for msg := range events {
			if done, ok := msg.(RunDoneMsg); ok {
				return done.Outcome, done.Report, nil
			}
		}
	}
	return m.outcome, m.report, nil
}
