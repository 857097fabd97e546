// Package tui is the host window: a Bubble Tea program that shows relayed
// worker output until the user quits.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tessro/sidecar/internal/backlog"
	"github.com/tessro/sidecar/internal/sidecar"
)

// outputMsg is sent when the feed has new lines or an exit status.
type outputMsg struct{}

// Model is the window model.
type Model struct {
	info sidecar.Info
	feed *Feed
	keys KeyBindings

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	// wrap soft-wraps long lines to the viewport width.
	wrap bool
	// follow keeps the viewport pinned to the newest line.
	follow bool
}

// NewModel creates a window model showing output from feed.
func NewModel(info sidecar.Info, feed *Feed) Model {
	return Model{
		info:   info,
		feed:   feed,
		keys:   DefaultKeyBindings(),
		wrap:   true,
		follow: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForOutput(m.feed.Updates())
}

func waitForOutput(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return outputMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case outputMsg:
		m.refresh()
		return m, waitForOutput(m.feed.Updates())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)
		case key.Matches(msg, m.keys.Down):
			m.viewport.LineDown(1)
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.ViewUp()
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.ViewDown()
		case key.Matches(msg, m.keys.ToggleWrap):
			m.wrap = !m.wrap
			m.refresh()
		}
		m.follow = m.viewport.AtBottom()
	}
	return m, nil
}

func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height

	// header + help bar
	contentHeight := height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = contentHeight
	}
	m.refresh()
}

// refresh rebuilds the viewport content from the feed.
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	entries := m.feed.Lines(0)
	rendered := make([]string, 0, len(entries))
	for _, e := range entries {
		rendered = append(rendered, m.renderLine(e))
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))

	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderLine(e backlog.Entry) string {
	text := e.Text
	if m.wrap && m.viewport.Width > 0 {
		text = wordwrap.String(text, m.viewport.Width)
	}
	if e.Stream == sidecar.Stderr {
		return stderrLineStyle.Render(text)
	}
	return stdoutLineStyle.Render(text)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var body string
	if len(m.feed.Lines(1)) == 0 {
		body = emptyOutputStyle.Render(fmt.Sprintf("Waiting for output from %s...", m.info.Name))
	} else {
		body = m.viewport.View()
	}

	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), body, m.helpView())
}

func (m Model) headerView() string {
	brand := headerBrandStyle.Render("sidecar " + m.info.Name)

	var status string
	exited, code, signal := m.feed.Exit()
	switch {
	case !exited:
		status = headerRunningStyle.Render(fmt.Sprintf(" ● pid %d", m.info.PID))
	case signal != "":
		status = headerExitedStyle.Render(fmt.Sprintf(" ○ %s", signal))
	default:
		status = headerExitedStyle.Render(fmt.Sprintf(" ○ exited %d", code))
	}

	stats := fmt.Sprintf("%d lines", len(m.feed.Lines(0)))
	if dropped := m.feed.Dropped(); dropped > 0 {
		stats += fmt.Sprintf("  •  %d dropped", dropped)
	}
	statsView := headerStatsStyle.Render(stats)

	spacerWidth := m.width - lipgloss.Width(brand) - lipgloss.Width(status) - lipgloss.Width(statsView)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	content := lipgloss.JoinHorizontal(lipgloss.Top, brand, status, spacer, statsView)
	return headerContainerStyle.Width(m.width).Render(content)
}

func (m Model) helpView() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+h.Desc)
	}
	return helpBarStyle.Width(m.width).Render(strings.Join(parts, "  •  "))
}

// Window shows a Feed in a terminal. Show returns when the user quits.
type Window struct {
	Feed *Feed

	// Input and Output default to the terminal when nil.
	Input  io.Reader
	Output io.Writer

	AltScreen bool
}

// Show runs the window until the user quits or ctx is cancelled.
// Cancellation is not an error.
func (w *Window) Show(ctx context.Context, info sidecar.Info) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if w.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if w.Input != nil {
		opts = append(opts, tea.WithInput(w.Input))
	}
	if w.Output != nil {
		opts = append(opts, tea.WithOutput(w.Output))
	}

	slog.Debug("tui.Show: starting", "sidecar", info.Name, "pid", info.PID)
	p := tea.NewProgram(NewModel(info, w.Feed), opts...)
	_, err := p.Run()
	slog.Debug("tui.Show: program exited", "error", err)

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
