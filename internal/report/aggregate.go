// Package report aggregates completed time entries into reports and manages
// share tokens that expose a report without authentication.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/timecalc"
)

type Service struct {
	repo  store.Repository
	clock clock.Clock
	log   *slog.Logger

	newToken func() (string, error)
}

func NewService(repo store.Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, clock: clk, log: logger}
}

// Row is one completed entry with its computed totals.
type Row struct {
	ID         int64
	Date       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Breaks     time.Duration
	NetWork    time.Duration
	BreakCount int
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         int64     `json:"id"`
		Date       string    `json:"date"`
		StartTime  time.Time `json:"startTime"`
		EndTime    time.Time `json:"endTime"`
		DurationMs int64     `json:"durationMs"`
		BreaksMs   int64     `json:"breaksMs"`
		NetWorkMs  int64     `json:"netWorkMs"`
		NetWork    string    `json:"netWork"`
		BreakCount int       `json:"breakCount"`
	}{r.ID, r.Date, r.StartTime, r.EndTime,
		timecalc.Millis(r.Duration), timecalc.Millis(r.Breaks), timecalc.Millis(r.NetWork),
		timecalc.FormatDuration(r.NetWork), r.BreakCount})
}

type Summary struct {
	TotalDuration    time.Duration
	TotalBreaks      time.Duration
	TotalNetWork     time.Duration
	DaysWorked       int
	AverageDailyWork time.Duration
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalDurationMs    int64  `json:"totalDurationMs"`
		TotalBreaksMs      int64  `json:"totalBreaksMs"`
		TotalNetWorkMs     int64  `json:"totalNetWorkMs"`
		TotalNetWork       string `json:"totalNetWork"`
		DaysWorked         int    `json:"daysWorked"`
		AverageDailyWorkMs int64  `json:"averageDailyWorkMs"`
		AverageDailyWork   string `json:"averageDailyWork"`
	}{
		timecalc.Millis(s.TotalDuration), timecalc.Millis(s.TotalBreaks), timecalc.Millis(s.TotalNetWork),
		timecalc.FormatDuration(s.TotalNetWork), s.DaysWorked,
		timecalc.Millis(s.AverageDailyWork), timecalc.FormatDuration(s.AverageDailyWork),
	})
}

// DayTotal sums the rows of one calendar date.
type DayTotal struct {
	Date     string
	Entries  int
	Duration time.Duration
	Breaks   time.Duration
	NetWork  time.Duration
}

func (d DayTotal) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date       string `json:"date"`
		Entries    int    `json:"entries"`
		DurationMs int64  `json:"durationMs"`
		BreaksMs   int64  `json:"breaksMs"`
		NetWorkMs  int64  `json:"netWorkMs"`
	}{d.Date, d.Entries, timecalc.Millis(d.Duration), timecalc.Millis(d.Breaks), timecalc.Millis(d.NetWork)})
}

type Report struct {
	Type        store.ReportType `json:"type"`
	Label       string           `json:"label"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Timezone    string           `json:"timezone"`
	Entries     []Row            `json:"entries"`
	Summary     Summary          `json:"summary"`
	Days        []DayTotal       `json:"days"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// RangeFor returns the calendar days a report of type t covers around anchor.
func RangeFor(t store.ReportType, anchor time.Time) (time.Time, time.Time) {
	switch t {
	case store.ReportWeekly:
		return timecalc.WeekRange(anchor)
	case store.ReportMonthly:
		return timecalc.MonthRange(anchor)
	}
	day := timecalc.StartOfDay(anchor)
	return day, day
}

// Label names a report the way it is shown to users.
func Label(t store.ReportType, start time.Time) string {
	switch t {
	case store.ReportWeekly:
		return timecalc.ISOWeekLabel(start)
	case store.ReportMonthly:
		return start.Format("January 2006")
	}
	return timecalc.DateKey(start)
}

// Generate aggregates the user's completed entries whose start falls on a
// calendar day in [start, end], in the user's timezone. Only the dates of
// start and end are used.
func (s *Service) Generate(ctx context.Context, userID int64, t store.ReportType, start, end time.Time) (*Report, error) {
	if !t.Valid() {
		return nil, apperr.Invalid("report type must be daily, weekly or monthly")
	}
	loc, err := s.location(ctx, userID)
	if err != nil {
		return nil, err
	}
	from := timecalc.DateIn(start, loc)
	to := timecalc.NextDay(timecalc.DateIn(end, loc))
	if !from.Before(to) {
		return nil, apperr.Invalid("start date must not be after end date")
	}

	entries, err := s.repo.ListEntries(ctx, userID, store.EntryFilter{
		From:   &from,
		To:     &to,
		Status: store.StatusCompleted,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "list entries for report", "user", userID, "err", err)
		return nil, apperr.Storage("failed to generate report", err)
	}

	now := s.clock.Now()
	rep := Aggregate(entries, loc, now)
	rep.Type = t
	rep.Label = Label(t, from)
	rep.StartDate = timecalc.DateKey(from)
	rep.EndDate = timecalc.DateKey(to.AddDate(0, 0, -1))
	rep.Timezone = loc.String()
	rep.GeneratedAt = now
	return rep, nil
}

// Aggregate computes rows, the summary and per-day totals. Active entries are
// skipped. Open breaks count up to now.
func Aggregate(entries []store.TimeEntry, loc *time.Location, now time.Time) *Report {
	rep := &Report{Entries: []Row{}, Days: []DayTotal{}}
	days := make(map[string]*DayTotal)

	for _, e := range entries {
		if e.Active() {
			continue
		}
		row := Row{
			ID:         e.ID,
			Date:       timecalc.DateKey(e.StartTime.In(loc)),
			StartTime:  e.StartTime.In(loc),
			EndTime:    e.EndTime.In(loc),
			Duration:   timecalc.Duration(e.StartTime, e.EndTime),
			BreakCount: len(e.Breaks),
		}
		for _, b := range e.Breaks {
			row.Breaks += timecalc.Elapsed(b.StartTime, b.EndTime, now)
		}
		row.NetWork = timecalc.NetWork(row.Duration, row.Breaks)
		rep.Entries = append(rep.Entries, row)

		rep.Summary.TotalDuration += row.Duration
		rep.Summary.TotalBreaks += row.Breaks

		d, ok := days[row.Date]
		if !ok {
			d = &DayTotal{Date: row.Date}
			days[row.Date] = d
		}
		d.Entries++
		d.Duration += row.Duration
		d.Breaks += row.Breaks
		d.NetWork += row.NetWork
	}

	sort.SliceStable(rep.Entries, func(i, j int) bool {
		return rep.Entries[i].StartTime.After(rep.Entries[j].StartTime)
	})
	for _, d := range days {
		rep.Days = append(rep.Days, *d)
	}
	sort.Slice(rep.Days, func(i, j int) bool { return rep.Days[i].Date < rep.Days[j].Date })

	rep.Summary.TotalNetWork = timecalc.NetWork(rep.Summary.TotalDuration, rep.Summary.TotalBreaks)
	rep.Summary.DaysWorked = len(days)
	if rep.Summary.DaysWorked > 0 {
		rep.Summary.AverageDailyWork = rep.Summary.TotalNetWork / time.Duration(rep.Summary.DaysWorked)
	}
	return rep
}

func (s *Service) location(ctx context.Context, userID int64) (*time.Location, error) {
	us, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		s.log.ErrorContext(ctx, "load settings for report", "user", userID, "err", err)
		return nil, apperr.Storage("failed to generate report", err)
	}
	loc, err := time.LoadLocation(us.Timezone)
	if err != nil {
		s.log.WarnContext(ctx, "unknown timezone in settings", "user", userID, "timezone", us.Timezone)
		return time.UTC, nil
	}
	return loc, nil
}
