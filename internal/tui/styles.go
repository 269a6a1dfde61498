package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive so the watch view stays readable on light terminals.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#4B44CC", Dark: "#6C63FF"}
	working = lipgloss.AdaptiveColor{Light: "#1E8449", Dark: "#2ECC71"}
	onBreak = lipgloss.AdaptiveColor{Light: "#B9770E", Dark: "#F39C12"}
	failure = lipgloss.AdaptiveColor{Light: "#B03A2E", Dark: "#E74C3C"}
	dim     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#666666"}
	text    = lipgloss.AdaptiveColor{Light: "#1A1B26", Dark: "#C0CAF5"}
	border  = lipgloss.AdaptiveColor{Light: "#C8CCE0", Dark: "#414868"}
)

var (
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(accent)

	timerStyle        = lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Foreground(dim)
	timerRunningStyle = timerStyle.Foreground(working)
	timerBreakStyle   = timerStyle.Foreground(onBreak)

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(text)
	subtitleStyle = lipgloss.NewStyle().Foreground(dim)
	mutedStyle    = subtitleStyle.Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(failure)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = headerStyle.Foreground(dim)
)
