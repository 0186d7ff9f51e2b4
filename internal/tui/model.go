// Package tui provides the Bubble Tea progress view for generation runs.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/practicer/internal/transcode"
)

const (
	maxBarWidth   = 60
	recentEntries = 4
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	entryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type progressMsg transcode.ProgressEvent

type doneMsg struct {
	err error
}

// Model implements the Bubble Tea progress view.
type Model struct {
	title   string
	cancel  context.CancelFunc
	spinner spinner.Model
	bar     progress.Model

	stage    transcode.Stage
	message  string
	done     int
	total    int
	recent   []string
	warnings []string

	finished bool
	canceled bool
	err      error
}

// NewModel constructs a progress view. cancel is called when the user quits.
func NewModel(title string, cancel context.CancelFunc) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stageStyle
	return &Model{
		title:   title,
		cancel:  cancel,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
		stage:   transcode.StageIdle,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		default:
			return m, nil
		}
	case progressMsg:
		return m, m.apply(transcode.ProgressEvent(msg))
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		if bar, ok := updated.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) apply(ev transcode.ProgressEvent) tea.Cmd {
	switch ev.Stage {
	case transcode.StageWarning:
		m.warnings = append(m.warnings, ev.Message)
		return nil
	case transcode.StageSegment:
		m.stage = ev.Stage
		m.done, m.total = ev.Done, ev.Total
		if ev.Segment != nil {
			m.recent = append(m.recent, ev.Segment.Entry)
			if len(m.recent) > recentEntries {
				m.recent = m.recent[len(m.recent)-recentEntries:]
			}
		}
		if m.total > 0 {
			return m.bar.SetPercent(float64(m.done) / float64(m.total))
		}
		return nil
	default:
		m.stage = ev.Stage
		m.message = ev.Message
		if ev.Stage == transcode.StageDone {
			return m.bar.SetPercent(1)
		}
		return nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.finished {
		return ""
	}
	lines := []string{m.spinner.View() + " " + titleStyle.Render(m.title), "  " + m.renderStatus()}
	if m.total > 0 {
		lines = append(lines, "  "+m.bar.View())
	}
	for _, entry := range m.recent {
		lines = append(lines, "  "+entryStyle.Render(entry))
	}
	for _, w := range m.warnings {
		lines = append(lines, "  "+warningStyle.Render("! "+w))
	}
	lines = append(lines, "", footerStyle.Render("esc or ctrl+c to cancel"))
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) renderStatus() string {
	label := stageLabel(m.stage)
	switch {
	case m.stage == transcode.StageSegment:
		return stageStyle.Render(label) + fmt.Sprintf(" %d/%d", m.done, m.total)
	case m.message != "":
		return stageStyle.Render(label) + " " + m.message
	default:
		return stageStyle.Render(label)
	}
}

func stageLabel(stage transcode.Stage) string {
	switch stage {
	case transcode.StageFetching:
		return "Downloading"
	case transcode.StageCreating:
		return "Reading chart"
	case transcode.StageSegment:
		return "Writing segments"
	case transcode.StageDone:
		return "Done"
	default:
		return "Waiting"
	}
}

// Work is a run driven by the progress view.
type Work func(ctx context.Context, progress transcode.ProgressCallback) error

// Run shows the progress view on stderr while work runs. Quitting the view
// cancels work's context and waits for it to return.
func Run(ctx context.Context, title string, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(title, cancel)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	errCh := make(chan error, 1)
	go func() {
		err := work(ctx, func(ev transcode.ProgressEvent) {
			p.Send(progressMsg(ev))
		})
		errCh <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-errCh
		return fmt.Errorf("progress view failed: %w", err)
	}
	cancel()
	return <-errCh
}
