package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focustrack/internal/engine"
	"focustrack/internal/timeutil"
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	ctrl        *engine.Controller
	description string

	progress progress.Model
	width    int
	height   int

	completed  bool
	confirmEnd bool
	verifying  bool
	verifyIn   textinput.Model
	verdict    string
	lastErr    error
}

func newModel(ctrl *engine.Controller, description string) model {
	prog := progress.New(progress.WithScaledGradient("#FF7CCB", "#FDFF8C"))
	prog.Width = 60

	input := textinput.New()
	input.Placeholder = "what did you get done?"
	input.CharLimit = 200
	input.Width = 50
	input.SetValue(description)

	return model{
		ctrl:        ctrl,
		description: description,
		progress:    prog,
		verifyIn:    input,
	}
}

func (m model) Init() tea.Cmd {
	if m.ctrl.State().Running {
		return tickCmd()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if w := msg.Width - 20; w < 80 {
			m.progress.Width = w
		} else {
			m.progress.Width = 80
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(ctx, msg)

	case tickMsg:
		ev, err := m.ctrl.Tick(ctx)
		m.lastErr = err
		if ev == engine.EventCompleted {
			m.completed = true
			return m, nil
		}
		if m.ctrl.State().Running {
			return m, tickCmd()
		}
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m model) handleKey(ctx context.Context, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.ctrl.State()

	// The verification prompt swallows every key until submit or escape.
	if m.verifying {
		switch msg.Type {
		case tea.KeyEnter:
			m.verifying = false
			m.verifyIn.Blur()
			verdict, err := m.ctrl.Verify(ctx, m.verifyIn.Value(), "")
			if err != nil {
				m.lastErr = err
			} else if verdict.Verified {
				m.verdict = fmt.Sprintf("verified (confidence %.0f%%)", verdict.Confidence*100)
			} else {
				m.verdict = "not verified: " + verdict.Reasoning
			}
			return m, nil
		case tea.KeyEsc, tea.KeyCtrlC:
			m.verifying = false
			m.verifyIn.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.verifyIn, cmd = m.verifyIn.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Start) && !m.completed:
		if state.Mode == engine.ModeFocus && !state.Running {
			if m.lastErr = m.ctrl.Start(); m.lastErr == nil {
				return m, tickCmd()
			}
		}

	case key.Matches(msg, keys.Pause) && !m.completed:
		if state.Mode == engine.ModeBreak {
			m.lastErr = m.ctrl.PauseBreak()
		} else {
			m.lastErr = m.ctrl.Pause()
		}

	case key.Matches(msg, keys.Resume) && !m.completed:
		if state.Mode == engine.ModeBreak && !state.Running {
			if m.lastErr = m.ctrl.ResumeBreak(); m.lastErr == nil {
				return m, tickCmd()
			}
		}

	case key.Matches(msg, keys.Break) && !m.completed:
		if m.lastErr = m.ctrl.TakeBreak(ctx); m.lastErr == nil {
			return m, tickCmd()
		}

	case key.Matches(msg, keys.Skip) && !m.completed:
		if m.lastErr = m.ctrl.SkipBreak(); m.lastErr == nil {
			return m, tickCmd()
		}

	case key.Matches(msg, keys.Focus) && !m.completed:
		if m.lastErr = m.ctrl.ReturnToFocus(); m.lastErr == nil {
			return m, tickCmd()
		}

	case key.Matches(msg, keys.End) && !m.completed:
		// Ending throws away the rest of the plan; ask twice.
		if !m.confirmEnd {
			m.confirmEnd = true
			return m, nil
		}
		m.confirmEnd = false
		m.lastErr = m.ctrl.End(ctx)
		if m.lastErr == nil {
			m.completed = true
		}

	case key.Matches(msg, keys.Retry) && m.lastErr != nil:
		m.lastErr = m.ctrl.Retry(ctx)
		if m.lastErr == nil {
			m.completed = true
		}

	case key.Matches(msg, keys.Verify) && m.completed:
		m.verifying = true
		m.verifyIn.Focus()
		return m, textinput.Blink

	default:
		m.confirmEnd = false
	}

	return m, nil
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Padding(2)

	if m.completed {
		return containerStyle.Render(m.renderCompleted())
	}

	state := m.ctrl.State()
	cfg := state.Config

	var remaining, total int
	var label string
	if state.Mode == engine.ModeBreak {
		remaining = state.BreakRemaining
		total = cfg.BreakSeconds
		label = "BREAK"
	} else {
		remaining = state.FocusRemaining
		total = cfg.FocusSeconds
		label = cfg.Title
	}

	percent := 0.0
	if total > 0 {
		percent = float64(total-remaining) / float64(total)
	}

	var status string
	switch {
	case m.confirmEnd:
		status = "End the session early? Press 'e' again to confirm"
	case m.lastErr != nil:
		status = "error: " + m.lastErr.Error() + " (y: retry)"
	case state.Mode == engine.ModeBreak && state.Running:
		status = "On a break. f: back to focus early"
	case state.Mode == engine.ModeBreak:
		status = "Break paused. r: resume"
	case state.Running:
		status = fmt.Sprintf("Focus time! %d break(s) left", state.RemainingBreaks)
	default:
		status = "Press 's' to start the focus countdown"
	}

	timerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4")).
		Padding(2, 4).
		MarginBottom(2)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAA")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888")).
		MarginBottom(2)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		labelStyle.Render(label),
		timerStyle.Render(timeutil.Clock(remaining)),
		m.progress.ViewAs(percent),
		statusStyle.Render(status),
		helpView(state),
	)
	return containerStyle.Render(content)
}

func (m model) renderCompleted() string {
	state := m.ctrl.State()

	doneStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFD700")).
		Align(lipgloss.Center)

	lines := []string{
		"",
		"Session recorded",
		"",
		fmt.Sprintf("Focus: %s", timeutil.Clock(state.Accumulated)),
		fmt.Sprintf("Breaks used: %d", state.UsedBreaks),
		"",
	}
	if m.verdict != "" {
		lines = append(lines, "Verification: "+m.verdict, "")
	}
	if m.lastErr != nil {
		lines = append(lines, "error: "+m.lastErr.Error(), "y: retry", "")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(2)

	help := "v: verify session • q: quit"
	if m.verifying {
		help = "enter: submit • esc: cancel"
		lines = append(lines, "Describe the session for verification:", m.verifyIn.View(), "")
	}

	return lipgloss.JoinVertical(
		lipgloss.Center,
		doneStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...)),
		helpStyle.Render(help),
	)
}

func helpView(state engine.Snapshot) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666")).
		MarginTop(2)

	var text string
	switch {
	case state.Mode == engine.ModeBreak:
		text = "k: skip • f: focus • p: pause • r: resume • q: quit"
	case state.Running:
		text = "p: pause • b: break • e: end • q: quit"
	default:
		text = "s: start • e: end • q: quit"
	}
	return helpStyle.Render(text)
}

type keyMap struct {
	Start  key.Binding
	Pause  key.Binding
	Resume key.Binding
	Break  key.Binding
	Skip   key.Binding
	Focus  key.Binding
	End    key.Binding
	Retry  key.Binding
	Verify key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Resume: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resume"),
	),
	Break: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "take a break"),
	),
	Skip: key.NewBinding(
		key.WithKeys("k"),
		key.WithHelp("k", "skip break"),
	),
	Focus: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "back to focus"),
	),
	End: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "end session"),
	),
	Retry: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "retry"),
	),
	Verify: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "verify"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
