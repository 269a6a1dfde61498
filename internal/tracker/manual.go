package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/store"
)

// BreakInput is one row of a submitted break set. On edit, a row with an ID
// and no flags updates that break, New inserts, Deleted removes, and a row
// that is both New and Deleted is ignored.
type BreakInput struct {
	ID        int64      `json:"id,omitempty"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	New       bool       `json:"isNew,omitempty"`
	Deleted   bool       `json:"isDeleted,omitempty"`
}

type EntryInput struct {
	StartTime *time.Time   `json:"startTime"`
	EndTime   *time.Time   `json:"endTime,omitempty"`
	Breaks    []BreakInput `json:"breaks,omitempty"`
}

const defaultRecentLimit = 20

// CreateManualEntry stores a completed (or open) entry with its breaks in one
// transaction.
func (s *Service) CreateManualEntry(ctx context.Context, userID int64, in EntryInput) (*store.TimeEntry, error) {
	const msg = "failed to create time entry"

	if err := validateEntryWindow(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	var spans []span
	for _, b := range in.Breaks {
		if b.Deleted {
			continue
		}
		if b.StartTime == nil {
			return nil, apperr.Invalid("break start time is required")
		}
		spans = append(spans, span{start: *b.StartTime, end: b.EndTime})
	}
	if err := validateBreaks(*in.StartTime, in.EndTime, spans); err != nil {
		return nil, err
	}

	var created *store.TimeEntry
	err := s.repo.Atomically(ctx, func(r store.Repository) error {
		e, err := r.CreateEntry(ctx, userID, *in.StartTime, in.EndTime)
		if errors.Is(err, store.ErrConflict) {
			return apperr.Conflicting("a work session is already active")
		}
		if err != nil {
			return err
		}
		for _, sp := range spans {
			if _, err := r.CreateBreak(ctx, e.ID, sp.start, sp.end); err != nil {
				return err
			}
		}
		created, err = r.GetEntry(ctx, e.ID, userID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	s.log.InfoContext(ctx, "entry created", "user", userID, "entry", created.ID, "breaks", len(created.Breaks))
	return created, nil
}

// UpdateManualEntry replaces the entry window and reconciles its breaks.
// Existing breaks the edit does not mention are kept and revalidated.
func (s *Service) UpdateManualEntry(ctx context.Context, userID, entryID int64, in EntryInput) (*store.TimeEntry, error) {
	if err := validateEntryWindow(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	win := &window{start: *in.StartTime, end: in.EndTime}
	return s.reconcile(ctx, userID, entryID, win, in.Breaks, "failed to update time entry")
}

// DeleteEntry removes an entry and its breaks. Active entries may be deleted.
func (s *Service) DeleteEntry(ctx context.Context, userID, entryID int64) error {
	if err := s.repo.DeleteEntry(ctx, entryID, userID); err != nil {
		return s.notFound(ctx, userID, "time entry", "failed to delete time entry", err)
	}
	s.log.InfoContext(ctx, "entry deleted", "user", userID, "entry", entryID)
	return nil
}

// AddBreak inserts one break into a completed entry.
func (s *Service) AddBreak(ctx context.Context, userID, entryID int64, start time.Time, end *time.Time) (*store.TimeEntry, error) {
	in := []BreakInput{{StartTime: &start, EndTime: end, New: true}}
	return s.reconcile(ctx, userID, entryID, nil, in, "failed to add break")
}

// UpdateBreak changes one break of a completed entry.
func (s *Service) UpdateBreak(ctx context.Context, userID, breakID int64, start time.Time, end *time.Time) (*store.TimeEntry, error) {
	entryID, err := s.entryOfBreak(ctx, userID, breakID, "failed to update break")
	if err != nil {
		return nil, err
	}
	in := []BreakInput{{ID: breakID, StartTime: &start, EndTime: end}}
	return s.reconcile(ctx, userID, entryID, nil, in, "failed to update break")
}

// DeleteBreak removes one break from a completed entry.
func (s *Service) DeleteBreak(ctx context.Context, userID, breakID int64) (*store.TimeEntry, error) {
	entryID, err := s.entryOfBreak(ctx, userID, breakID, "failed to delete break")
	if err != nil {
		return nil, err
	}
	in := []BreakInput{{ID: breakID, Deleted: true}}
	return s.reconcile(ctx, userID, entryID, nil, in, "failed to delete break")
}

// Entry loads one of the user's entries with its breaks.
func (s *Service) Entry(ctx context.Context, userID, entryID int64) (*store.TimeEntry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID, userID)
	if err != nil {
		return nil, s.notFound(ctx, userID, "time entry", "failed to load time entry", err)
	}
	return entry, nil
}

// RecentEntries lists the user's latest entries, newest first.
func (s *Service) RecentEntries(ctx context.Context, userID int64, limit int) ([]store.TimeEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	entries, err := s.repo.ListEntries(ctx, userID, store.EntryFilter{Limit: limit})
	if err != nil {
		return nil, s.fail(ctx, userID, "failed to list time entries", err)
	}
	if entries == nil {
		entries = []store.TimeEntry{}
	}
	return entries, nil
}

// entryOfBreak resolves the owning entry of one of the user's breaks.
func (s *Service) entryOfBreak(ctx context.Context, userID, breakID int64, msg string) (int64, error) {
	b, err := s.repo.GetBreak(ctx, breakID, userID)
	if err != nil {
		return 0, s.notFound(ctx, userID, "break", msg, err)
	}
	return b.TimeEntryID, nil
}

// window is a replacement entry window. A nil *window keeps the stored one.
type window struct {
	start time.Time
	end   *time.Time
}

type breakUpdate struct {
	id int64
	span
}

// reconcile computes the surviving break set, validates it against the new
// window and writes everything. The read, the validation and the writes share
// one transaction so a concurrent edit cannot slip a break in between.
func (s *Service) reconcile(ctx context.Context, userID, entryID int64, win *window, in []BreakInput, msg string) (*store.TimeEntry, error) {
	if err := checkBreakIDs(in); err != nil {
		return nil, err
	}

	var (
		updated *store.TimeEntry
		plan    breakPlan
	)
	err := s.repo.Atomically(ctx, func(r store.Repository) error {
		entry, err := r.GetEntry(ctx, entryID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Missing("time entry")
		}
		if err != nil {
			return err
		}
		if entry.Active() {
			return apperr.Conflicting("cannot edit an active work session; end it first")
		}
		start, end := entry.StartTime, entry.EndTime
		if win != nil {
			start, end = win.start, win.end
		}

		plan, err = planBreaks(entry.Breaks, in)
		if err != nil {
			return err
		}
		if err := validateBreaks(start, end, plan.final); err != nil {
			return err
		}

		if _, err := r.UpdateEntry(ctx, entryID, userID, start, end); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return apperr.Conflicting("a work session is already active")
			}
			return err
		}
		for _, id := range plan.deletes {
			if err := r.DeleteBreak(ctx, id, userID); err != nil {
				return err
			}
		}
		for _, u := range plan.updates {
			if _, err := r.UpdateBreak(ctx, u.id, userID, u.start, u.end); err != nil {
				return err
			}
		}
		for _, sp := range plan.inserts {
			if _, err := r.CreateBreak(ctx, entryID, sp.start, sp.end); err != nil {
				return err
			}
		}
		updated, err = r.GetEntry(ctx, entryID, userID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, userID, msg, err)
	}
	s.log.InfoContext(ctx, "entry updated", "user", userID, "entry", entryID,
		"inserted", len(plan.inserts), "updated", len(plan.updates), "deleted", len(plan.deletes))
	return updated, nil
}

// checkBreakIDs rejects an edit that names the same stored break twice.
func checkBreakIDs(in []BreakInput) error {
	seen := make(map[int64]bool, len(in))
	for _, b := range in {
		if b.ID == 0 || b.New {
			continue
		}
		if seen[b.ID] {
			return apperr.Invalid("break %d appears more than once", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

type breakPlan struct {
	deletes []int64
	updates []breakUpdate
	inserts []span
	final   []span
}

// planBreaks applies the submitted rows to the stored breaks.
func planBreaks(stored []store.Break, in []BreakInput) (breakPlan, error) {
	var p breakPlan
	existing := make(map[int64]span, len(stored))
	for _, b := range stored {
		existing[b.ID] = span{start: b.StartTime, end: b.EndTime}
	}

	for _, b := range in {
		switch {
		case b.New && b.Deleted:
			continue
		case b.Deleted:
			if _, ok := existing[b.ID]; !ok {
				return p, apperr.Missing("break")
			}
			delete(existing, b.ID)
			p.deletes = append(p.deletes, b.ID)
		case b.New || b.ID == 0:
			if b.StartTime == nil {
				return p, apperr.Invalid("break start time is required")
			}
			p.inserts = append(p.inserts, span{start: *b.StartTime, end: b.EndTime})
		default:
			if _, ok := existing[b.ID]; !ok {
				return p, apperr.Missing("break")
			}
			if b.StartTime == nil {
				return p, apperr.Invalid("break start time is required")
			}
			sp := span{start: *b.StartTime, end: b.EndTime}
			existing[b.ID] = sp
			p.updates = append(p.updates, breakUpdate{id: b.ID, span: sp})
		}
	}

	p.final = make([]span, 0, len(existing)+len(p.inserts))
	for _, sp := range existing {
		p.final = append(p.final, sp)
	}
	p.final = append(p.final, p.inserts...)
	return p, nil
}
