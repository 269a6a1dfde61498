package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/timecalc"
)

type State string

const (
	StateIdle    State = "idle"
	StateWorking State = "working"
	StateBreak   State = "break"
)

// Live is the display view of a running session at a given instant. It is
// derived on every read and never persisted.
type Live struct {
	Elapsed      time.Duration
	TotalBreaks  time.Duration
	CurrentBreak time.Duration
	Working      time.Duration
}

func (l Live) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ElapsedMs      int64  `json:"elapsedMs"`
		TotalBreaksMs  int64  `json:"totalBreaksMs"`
		CurrentBreakMs int64  `json:"currentBreakMs"`
		WorkingMs      int64  `json:"workingMs"`
		Working        string `json:"working"`
	}{
		ElapsedMs:      timecalc.Millis(l.Elapsed),
		TotalBreaksMs:  timecalc.Millis(l.TotalBreaks),
		CurrentBreakMs: timecalc.Millis(l.CurrentBreak),
		WorkingMs:      timecalc.Millis(l.Working),
		Working:        timecalc.FormatDuration(l.Working),
	})
}

type Session struct {
	Status      State            `json:"status"`
	Entry       *store.TimeEntry `json:"entry"`
	ActiveBreak *store.Break     `json:"activeBreak"`
	Breaks      []store.Break    `json:"breaks"`
	Live        Live             `json:"live"`
	At          time.Time        `json:"at"`
}

// notBefore clamps now to floor. A transition may never be stamped earlier
// than the row it closes.
func notBefore(now, floor time.Time) time.Time {
	if now.Before(floor) {
		return floor
	}
	return now
}

// Start opens a new work session.
func (s *Service) Start(ctx context.Context, userID int64) (*store.TimeEntry, error) {
	const msg = "failed to start work session"

	active, err := s.repo.ActiveEntry(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	if active != nil {
		return nil, apperr.Conflicting("a work session is already active")
	}

	now := s.clock.Now()
	entry, err := s.repo.CreateEntry(ctx, userID, now, nil)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflicting("a work session is already active")
	}
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	s.log.InfoContext(ctx, "session started", "user", userID, "entry", entry.ID)
	return entry, nil
}

// StartBreak opens a break on the active session.
func (s *Service) StartBreak(ctx context.Context, userID int64) (*store.Break, error) {
	const msg = "failed to start break"

	active, err := s.repo.ActiveEntry(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	if active == nil {
		return nil, apperr.Conflicting("no active work session")
	}
	open, err := s.repo.OpenBreak(ctx, active.ID)
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	if open != nil {
		return nil, apperr.Conflicting("already on a break")
	}

	now := notBefore(s.clock.Now(), active.StartTime)
	b, err := s.repo.CreateBreak(ctx, active.ID, now, nil)
	if errors.Is(err, store.ErrConflict) {
		return nil, apperr.Conflicting("already on a break")
	}
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	s.log.InfoContext(ctx, "break started", "user", userID, "entry", active.ID, "break", b.ID)
	return b, nil
}

// EndBreak closes the open break and resumes work.
func (s *Service) EndBreak(ctx context.Context, userID int64) (*store.Break, error) {
	const msg = "failed to end break"

	active, err := s.repo.ActiveEntry(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	if active == nil {
		return nil, apperr.Conflicting("no active work session")
	}
	open, err := s.repo.OpenBreak(ctx, active.ID)
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	if open == nil {
		return nil, apperr.Conflicting("not on a break")
	}

	now := notBefore(s.clock.Now(), open.StartTime)
	b, err := s.repo.CloseBreak(ctx, open.ID, now)
	if errors.Is(err, store.ErrNotFound) {
		// Closed by a concurrent request.
		return nil, apperr.Conflicting("not on a break")
	}
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	s.log.InfoContext(ctx, "break ended", "user", userID, "entry", active.ID, "break", b.ID)
	return b, nil
}

// End completes the active session, closing an open break first. Both writes
// commit together.
func (s *Service) End(ctx context.Context, userID int64) (*store.TimeEntry, error) {
	const msg = "failed to end work session"

	var ended *store.TimeEntry
	err := s.repo.Atomically(ctx, func(r store.Repository) error {
		active, err := r.ActiveEntry(ctx, userID)
		if err != nil {
			return err
		}
		if active == nil {
			return apperr.Conflicting("no active work session")
		}

		now := notBefore(s.clock.Now(), active.StartTime)
		open, err := r.OpenBreak(ctx, active.ID)
		if err != nil {
			return err
		}
		if open != nil {
			now = notBefore(now, open.StartTime)
			if _, err := r.CloseBreak(ctx, open.ID, now); err != nil {
				return err
			}
		}

		ended, err = r.CloseEntry(ctx, active.ID, userID, now)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Conflicting("no active work session")
		}
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	s.log.InfoContext(ctx, "session ended", "user", userID, "entry", ended.ID)
	return ended, nil
}

// ActiveState reports the user's current state and the live view at now.
func (s *Service) ActiveState(ctx context.Context, userID int64) (*Session, error) {
	now := s.clock.Now()
	sess := &Session{Status: StateIdle, At: now, Breaks: []store.Break{}}

	active, err := s.repo.ActiveEntry(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, userID, "failed to load work session", err)
	}
	if active == nil {
		return sess, nil
	}

	sess.Status = StateWorking
	sess.Entry = active
	if active.Breaks != nil {
		sess.Breaks = active.Breaks
	}
	for i := range active.Breaks {
		if active.Breaks[i].Open() {
			b := active.Breaks[i]
			sess.ActiveBreak = &b
			sess.Status = StateBreak
		}
	}
	sess.Live = LiveView(active, now)
	return sess, nil
}

// LiveView computes elapsed, break and working time for entry at now.
// Working time is clamped at zero.
func LiveView(entry *store.TimeEntry, now time.Time) Live {
	var l Live
	if entry == nil {
		return l
	}
	l.Elapsed = max(timecalc.Elapsed(entry.StartTime, entry.EndTime, now), 0)
	for _, b := range entry.Breaks {
		if b.Open() {
			l.CurrentBreak += max(timecalc.Elapsed(b.StartTime, nil, now), 0)
			continue
		}
		l.TotalBreaks += timecalc.Duration(b.StartTime, b.EndTime)
	}
	l.Working = timecalc.NetWork(l.Elapsed, l.TotalBreaks+l.CurrentBreak)
	return l
}
