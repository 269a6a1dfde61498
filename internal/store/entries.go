package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const entryColumns = `id, user_id, start_time, end_time, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*TimeEntry, error) {
	var e TimeEntry
	var startTime, createdAt, updatedAt string
	var endTime sql.NullString
	if err := r.Scan(&e.ID, &e.UserID, &startTime, &endTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if e.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if e.EndTime, err = parseOptTime(endTime); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	e.Status = StatusCompleted
	if e.EndTime == nil {
		e.Status = StatusActive
	}
	return &e, nil
}

func (s *Store) CreateEntry(ctx context.Context, userID int64, start time.Time, end *time.Time) (*TimeEntry, error) {
	now := formatTime(nowUTC())
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO time_entries (user_id, start_time, end_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		userID, formatTime(start), formatOptTime(end), now, now,
	)
	if err != nil {
		return nil, classify("create entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return s.GetEntry(ctx, id, userID)
}

// GetEntry loads an entry with its breaks. Entries owned by another user are
// reported as ErrNotFound.
func (s *Store) GetEntry(ctx context.Context, id, userID int64) (*TimeEntry, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntry(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get entry %d", id), err)
	}
	if e.Breaks, err = s.ListBreaks(ctx, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

// ActiveEntry returns the user's open entry, or nil when there is none.
func (s *Store) ActiveEntry(ctx context.Context, userID int64) (*TimeEntry, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id = ? AND end_time IS NULL ORDER BY id DESC LIMIT 1`,
		userID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active entry: %w", err)
	}
	if e.Breaks, err = s.ListBreaks(ctx, e.ID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) UpdateEntry(ctx context.Context, id, userID int64, start time.Time, end *time.Time) (*TimeEntry, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE time_entries SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		formatTime(start), formatOptTime(end), formatTime(nowUTC()), id, userID,
	)
	if err != nil {
		return nil, classify("update entry", err)
	}
	if err := expectRow(res, "update entry"); err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id, userID)
}

// CloseEntry sets end_time on an entry that is still open.
func (s *Store) CloseEntry(ctx context.Context, id, userID int64, end time.Time) (*TimeEntry, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE time_entries SET end_time = ?, updated_at = ? WHERE id = ? AND user_id = ? AND end_time IS NULL`,
		formatTime(end), formatTime(nowUTC()), id, userID,
	)
	if err != nil {
		return nil, classify("close entry", err)
	}
	if err := expectRow(res, "close entry"); err != nil {
		return nil, err
	}
	return s.GetEntry(ctx, id, userID)
}

// DeleteEntry removes the entry; its breaks go with it through the foreign key.
func (s *Store) DeleteEntry(ctx context.Context, id, userID int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return classify("delete entry", err)
	}
	return expectRow(res, "delete entry")
}

// ListEntries returns the user's entries, newest start first, each with its breaks.
func (s *Store) ListEntries(ctx context.Context, userID int64, f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE user_id = ?`
	args := []any{userID}

	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, formatTime(*f.To))
	}
	switch f.Status {
	case StatusActive:
		query += ` AND end_time IS NULL`
	case StatusCompleted:
		query += ` AND end_time IS NOT NULL`
	}
	query += ` ORDER BY start_time DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, int64(f.Limit))
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if err := s.attachBreaks(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// attachBreaks loads the breaks of all entries with a single query.
func (s *Store) attachBreaks(ctx context.Context, entries []TimeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]any, len(entries))
	index := make(map[int64]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		index[e.ID] = i
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.q.QueryContext(ctx,
		`SELECT `+breakColumns+` FROM breaks WHERE time_entry_id IN (`+placeholders+`) ORDER BY start_time, id`,
		ids...)
	if err != nil {
		return fmt.Errorf("list breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return fmt.Errorf("list breaks: %w", err)
		}
		i := index[b.TimeEntryID]
		entries[i].Breaks = append(entries[i].Breaks, *b)
	}
	return rows.Err()
}

func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
