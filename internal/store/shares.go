package store

import (
	"context"
	"database/sql"
	"fmt"
)

const shareColumns = `id, user_id, share_token, report_type, start_date, end_date, expires_at, created_at`

func scanShare(r rowScanner) (*SharedReport, error) {
	var sr SharedReport
	var reportType, startDate, endDate, createdAt string
	var expiresAt sql.NullString
	if err := r.Scan(&sr.ID, &sr.UserID, &sr.ShareToken, &reportType, &startDate, &endDate, &expiresAt, &createdAt); err != nil {
		return nil, err
	}
	sr.ReportType = ReportType(reportType)
	var err error
	if sr.StartDate, err = parseTime(startDate); err != nil {
		return nil, err
	}
	if sr.EndDate, err = parseTime(endDate); err != nil {
		return nil, err
	}
	if sr.ExpiresAt, err = parseOptTime(expiresAt); err != nil {
		return nil, err
	}
	if sr.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// CreateSharedReport stores r. A token that already exists yields ErrConflict.
func (s *Store) CreateSharedReport(ctx context.Context, r SharedReport) (*SharedReport, error) {
	created := r.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO shared_reports (user_id, share_token, report_type, start_date, end_date, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.UserID, r.ShareToken, string(r.ReportType), formatTime(r.StartDate), formatTime(r.EndDate),
		formatOptTime(r.ExpiresAt), formatTime(created),
	)
	if err != nil {
		return nil, classify("create shared report", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create shared report: %w", err)
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM shared_reports WHERE id = ?`, id)
	sr, err := scanShare(row)
	if err != nil {
		return nil, classify("create shared report", err)
	}
	return sr, nil
}

func (s *Store) SharedReportByToken(ctx context.Context, token string) (*SharedReport, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM shared_reports WHERE share_token = ?`, token)
	sr, err := scanShare(row)
	if err != nil {
		return nil, classify("get shared report", err)
	}
	return sr, nil
}

// ListSharedReports returns the user's shares, newest first.
func (s *Store) ListSharedReports(ctx context.Context, userID int64) ([]SharedReport, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+shareColumns+` FROM shared_reports WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared reports: %w", err)
	}
	defer rows.Close()

	var out []SharedReport
	for rows.Next() {
		sr, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("list shared reports: %w", err)
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSharedReport(ctx context.Context, token string, userID int64) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM shared_reports WHERE share_token = ? AND user_id = ?`, token, userID)
	if err != nil {
		return classify("delete shared report", err)
	}
	return expectRow(res, "delete shared report")
}
