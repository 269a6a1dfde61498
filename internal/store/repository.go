package store

import (
	"context"
	"time"
)

// Repository is the persistence surface the tracker and report services
// depend on. *Store implements it; tests may substitute their own.
//
// Lookups scoped by userID return ErrNotFound both for missing rows and for
// rows owned by someone else.
type Repository interface {
	CreateEntry(ctx context.Context, userID int64, start time.Time, end *time.Time) (*TimeEntry, error)
	GetEntry(ctx context.Context, id, userID int64) (*TimeEntry, error)
	ActiveEntry(ctx context.Context, userID int64) (*TimeEntry, error)
	UpdateEntry(ctx context.Context, id, userID int64, start time.Time, end *time.Time) (*TimeEntry, error)
	CloseEntry(ctx context.Context, id, userID int64, end time.Time) (*TimeEntry, error)
	DeleteEntry(ctx context.Context, id, userID int64) error
	ListEntries(ctx context.Context, userID int64, f EntryFilter) ([]TimeEntry, error)

	CreateBreak(ctx context.Context, entryID int64, start time.Time, end *time.Time) (*Break, error)
	GetBreak(ctx context.Context, id, userID int64) (*Break, error)
	ListBreaks(ctx context.Context, entryID int64) ([]Break, error)
	OpenBreak(ctx context.Context, entryID int64) (*Break, error)
	UpdateBreak(ctx context.Context, id, userID int64, start time.Time, end *time.Time) (*Break, error)
	CloseBreak(ctx context.Context, id int64, end time.Time) (*Break, error)
	DeleteBreak(ctx context.Context, id, userID int64) error

	GetSettings(ctx context.Context, userID int64) (*UserSettings, error)
	UpdateSettings(ctx context.Context, userID int64, patch SettingsPatch) (*UserSettings, error)

	CreateSharedReport(ctx context.Context, r SharedReport) (*SharedReport, error)
	SharedReportByToken(ctx context.Context, token string) (*SharedReport, error)
	ListSharedReports(ctx context.Context, userID int64) ([]SharedReport, error)
	DeleteSharedReport(ctx context.Context, token string, userID int64) error

	// Atomically runs fn inside one transaction. fn must only use the
	// Repository it is handed. Any error rolls every write back.
	Atomically(ctx context.Context, fn func(Repository) error) error
}
