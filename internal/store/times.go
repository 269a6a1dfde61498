package store

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is fixed width so that text comparison in SQL matches
// chronological order. Values are always stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseOptTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// optional turns a nil pointer into a SQL NULL and dereferences the rest.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// nowUTC stamps created_at and updated_at columns.
func nowUTC() time.Time {
	return time.Now().UTC()
}
