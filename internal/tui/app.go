// Package tui renders a read-only terminal view of a user's work session.
// It polls the session once per second and never changes state.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/tracker"
)

// SessionSource is satisfied by *tracker.Service.
type SessionSource interface {
	ActiveState(ctx context.Context, userID int64) (*tracker.Session, error)
}

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	source SessionSource
	clock  clock.Clock
	userID int64

	width  int
	height int

	session    *tracker.Session
	err        error
	showBreaks bool
	showHelp   bool

	help help.Model
}

func NewApp(ctx context.Context, source SessionSource, clk clock.Clock, userID int64) App {
	if clk == nil {
		clk = clock.System{}
	}
	h := help.New()
	h.ShowAll = false

	return App{
		ctx:        ctx,
		source:     source,
		clock:      clk,
		userID:     userID,
		showBreaks: true,
		help:       h,
	}
}

// Run starts the watch view and blocks until the user quits or ctx ends.
func Run(ctx context.Context, source SessionSource, clk clock.Clock, userID int64) error {
	p := tea.NewProgram(NewApp(ctx, source, clk, userID), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.fetch(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) fetch() tea.Cmd {
	return func() tea.Msg {
		sess, err := a.source.ActiveState(a.ctx, a.userID)
		return sessionMsg{session: sess, err: err}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Breaks):
			a.showBreaks = !a.showBreaks
			return a, nil
		case key.Matches(msg, keys.Refresh):
			return a, a.fetch()
		}

	case tickMsg:
		// Advance the display locally until the next poll answers.
		if a.session != nil && a.session.Entry != nil {
			a.session.Live = tracker.LiveView(a.session.Entry, a.clock.Now())
		}
		return a, tea.Batch(a.fetch(), tickCmd())

	case sessionMsg:
		a.err = msg.err
		if msg.err == nil {
			a.session = msg.session
		}
		return a, nil
	}
	return a, nil
}

func (a App) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(titleStyle.Render("punchclock") + subtitleStyle.Render("  watch")))
	b.WriteString("\n\n")

	panel := panelStyle
	if a.session != nil && a.session.Status != tracker.StateIdle {
		panel = activePanelStyle
	}
	inner := 0
	if a.width > 8 {
		inner = a.width - 8
	}
	body := renderTimer(a.session, inner)
	if a.showBreaks && a.session != nil && a.session.Entry != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, "", renderBreaks(a.session.Breaks, a.clock.Now()))
	}
	b.WriteString(panel.Render(body))
	b.WriteString("\n")

	if a.err != nil {
		b.WriteString(errorStyle.Render("Error: " + a.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render(a.help.View(keys)))
	return b.String()
}
