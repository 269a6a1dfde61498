package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/timecalc"
	"github.com/sadopc/punchclock/internal/tracker"
)

// statusLabel returns the badge text and the style for the big timer.
func statusLabel(state tracker.State) (string, lipgloss.Style) {
	switch state {
	case tracker.StateWorking:
		return "● WORKING", timerRunningStyle
	case tracker.StateBreak:
		return "⏸ ON BREAK", timerBreakStyle
	}
	return "○ IDLE", timerStyle
}

func renderTimer(sess *tracker.Session, width int) string {
	if sess == nil {
		return mutedStyle.Render("Loading…")
	}
	label, style := statusLabel(sess.Status)
	if width > 0 {
		style = style.Width(width)
	}

	var b strings.Builder
	b.WriteString(style.Render(label))
	b.WriteString("\n\n")
	b.WriteString(style.Render(timecalc.FormatDurationHHMMSS(sess.Live.Working)))
	b.WriteString("\n\n")

	if sess.Entry == nil {
		b.WriteString(subtitleStyle.Render("No active work session. Start one with `punchclock start`."))
		return b.String()
	}

	live := sess.Live
	lines := []string{
		fmt.Sprintf("Started      %s", sess.Entry.StartTime.Local().Format("15:04:05")),
		fmt.Sprintf("Elapsed      %s", timecalc.FormatDuration(live.Elapsed)),
		fmt.Sprintf("Breaks       %s", timecalc.FormatDuration(live.TotalBreaks)),
	}
	if sess.ActiveBreak != nil {
		lines = append(lines, fmt.Sprintf("This break   %s", timecalc.FormatDurationHHMMSS(live.CurrentBreak)))
	}
	lines = append(lines, fmt.Sprintf("Net work     %s", timecalc.FormatDuration(live.Working)))
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func renderBreaks(breaks []store.Break, now time.Time) string {
	if len(breaks) == 0 {
		return mutedStyle.Render("No breaks yet.")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Breaks"))
	for i, br := range breaks {
		end := "…"
		if br.EndTime != nil {
			end = br.EndTime.Local().Format("15:04")
		}
		dur := timecalc.Elapsed(br.StartTime, br.EndTime, now)
		fmt.Fprintf(&b, "\n%2d. %s – %-5s  %s", i+1, br.StartTime.Local().Format("15:04"), end, timecalc.FormatDuration(dur))
	}
	return b.String()
}
