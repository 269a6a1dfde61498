package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/timecalc"
	"github.com/sadopc/punchclock/internal/tracker"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// parseWhen reads a timestamp in the user's timezone. A bare "15:04" is taken
// on the calendar day of base.
func parseWhen(raw string, base time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("15:04", raw, loc); err == nil {
		d := base.In(loc)
		return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use HH:MM, YYYY-MM-DD HH:MM or RFC 3339)", raw)
}

// parseBreak reads "START..END" or an open "START..".
func parseBreak(raw string, base time.Time, loc *time.Location) (tracker.BreakInput, error) {
	from, to, ok := strings.Cut(raw, "..")
	if !ok {
		return tracker.BreakInput{}, fmt.Errorf("break %q must look like 12:00..12:30", raw)
	}
	start, err := parseWhen(from, base, loc)
	if err != nil {
		return tracker.BreakInput{}, err
	}
	in := tracker.BreakInput{StartTime: &start, New: true}
	if strings.TrimSpace(to) != "" {
		end, err := parseWhen(to, base, loc)
		if err != nil {
			return tracker.BreakInput{}, err
		}
		in.EndTime = &end
	}
	return in, nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be in YYYY-MM-DD format", raw)
	}
	return d, nil
}

// reportRange resolves --date/--start/--end the same way the HTTP API does.
func reportRange(ctx context.Context, t store.ReportType, date, start, end string) (time.Time, time.Time, error) {
	if start != "" || end != "" {
		s, err := parseDate(start)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		e, err := parseDate(end)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return s, e, nil
	}
	var anchor time.Time
	if date != "" {
		d, err := parseDate(date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		anchor = d
	} else {
		loc, err := app.tracker.Location(ctx, userFlag)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		anchor = app.clock.Now().In(loc)
	}
	s, e := report.RangeFor(t, anchor)
	return s, e, nil
}

func clockTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "…"
	}
	return t.In(loc).Format("15:04")
}

func entryLine(e store.TimeEntry, loc *time.Location, now time.Time) string {
	var breaks time.Duration
	for _, b := range e.Breaks {
		breaks += timecalc.Elapsed(b.StartTime, b.EndTime, now)
	}
	total := timecalc.Elapsed(e.StartTime, e.EndTime, now)
	return fmt.Sprintf("#%-4d %s  %s – %-5s  %s net  (%d breaks, %s)",
		e.ID, e.StartTime.In(loc).Format(dateLayout),
		clockTime(&e.StartTime, loc), clockTime(e.EndTime, loc),
		timecalc.FormatDuration(timecalc.NetWork(total, breaks)),
		len(e.Breaks), timecalc.FormatDuration(breaks))
}
