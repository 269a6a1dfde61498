package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const breakColumns = `id, time_entry_id, start_time, end_time, created_at, updated_at`

func scanBreak(r rowScanner) (*Break, error) {
	var b Break
	var startTime, createdAt, updatedAt string
	var endTime sql.NullString
	if err := r.Scan(&b.ID, &b.TimeEntryID, &startTime, &endTime, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if b.EndTime, err = parseOptTime(endTime); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBreak(ctx context.Context, entryID int64, start time.Time, end *time.Time) (*Break, error) {
	now := formatTime(nowUTC())
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO breaks (time_entry_id, start_time, end_time, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		entryID, formatTime(start), formatOptTime(end), now, now,
	)
	if err != nil {
		return nil, classify("create break", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create break: %w", err)
	}
	return s.breakByID(ctx, id)
}

func (s *Store) breakByID(ctx context.Context, id int64) (*Break, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+breakColumns+` FROM breaks WHERE id = ?`, id)
	b, err := scanBreak(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get break %d", id), err)
	}
	return b, nil
}

// GetBreak loads a break that belongs to one of the user's entries.
func (s *Store) GetBreak(ctx context.Context, id, userID int64) (*Break, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT b.id, b.time_entry_id, b.start_time, b.end_time, b.created_at, b.updated_at
		FROM breaks b
		JOIN time_entries te ON te.id = b.time_entry_id
		WHERE b.id = ? AND te.user_id = ?`, id, userID)
	b, err := scanBreak(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get break %d", id), err)
	}
	return b, nil
}

func (s *Store) ListBreaks(ctx context.Context, entryID int64) ([]Break, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+breakColumns+` FROM breaks WHERE time_entry_id = ? ORDER BY start_time, id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	defer rows.Close()

	var breaks []Break
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, fmt.Errorf("list breaks: %w", err)
		}
		breaks = append(breaks, *b)
	}
	return breaks, rows.Err()
}

// OpenBreak returns the entry's break without an end time, or nil.
func (s *Store) OpenBreak(ctx context.Context, entryID int64) (*Break, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+breakColumns+` FROM breaks WHERE time_entry_id = ? AND end_time IS NULL LIMIT 1`, entryID)
	b, err := scanBreak(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open break: %w", err)
	}
	return b, nil
}

func (s *Store) UpdateBreak(ctx context.Context, id, userID int64, start time.Time, end *time.Time) (*Break, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE breaks SET start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ? AND time_entry_id IN (SELECT id FROM time_entries WHERE user_id = ?)`,
		formatTime(start), formatOptTime(end), formatTime(nowUTC()), id, userID,
	)
	if err != nil {
		return nil, classify("update break", err)
	}
	if err := expectRow(res, "update break"); err != nil {
		return nil, err
	}
	return s.breakByID(ctx, id)
}

// CloseBreak sets end_time on a break that is still open.
func (s *Store) CloseBreak(ctx context.Context, id int64, end time.Time) (*Break, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE breaks SET end_time = ?, updated_at = ? WHERE id = ? AND end_time IS NULL`,
		formatTime(end), formatTime(nowUTC()), id,
	)
	if err != nil {
		return nil, classify("close break", err)
	}
	if err := expectRow(res, "close break"); err != nil {
		return nil, err
	}
	return s.breakByID(ctx, id)
}

func (s *Store) DeleteBreak(ctx context.Context, id, userID int64) error {
	res, err := s.q.ExecContext(ctx, `
		DELETE FROM breaks
		WHERE id = ? AND time_entry_id IN (SELECT id FROM time_entries WHERE user_id = ?)`, id, userID)
	if err != nil {
		return classify("delete break", err)
	}
	return expectRow(res, "delete break")
}
