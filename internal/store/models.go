package store

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type TimeEntry struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    Status     `json:"status"`
	Breaks    []Break    `json:"breaks"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Active reports whether the entry is still running.
func (e TimeEntry) Active() bool {
	return e.EndTime == nil
}

type Break struct {
	ID          int64      `json:"id"`
	TimeEntryID int64      `json:"timeEntryId"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (b Break) Open() bool {
	return b.EndTime == nil
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type UserSettings struct {
	UserID                   int64     `json:"userId"`
	WorkingHours             int       `json:"workingHours"`
	Timezone                 string    `json:"timezone"`
	AutoDetectBreaks         bool      `json:"autoDetectBreaks"`
	EnableNotifications      bool      `json:"enableNotifications"`
	EnableEmailNotifications bool      `json:"enableEmailNotifications"`
	AllowSharing             bool      `json:"allowSharing"`
	ShareDurationDays        int       `json:"shareDurationDays"`
	Theme                    Theme     `json:"theme"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

// SettingsPatch carries a partial settings update. Nil fields are left as is.
type SettingsPatch struct {
	WorkingHours             *int    `json:"workingHours,omitempty"`
	Timezone                 *string `json:"timezone,omitempty"`
	AutoDetectBreaks         *bool   `json:"autoDetectBreaks,omitempty"`
	EnableNotifications      *bool   `json:"enableNotifications,omitempty"`
	EnableEmailNotifications *bool   `json:"enableEmailNotifications,omitempty"`
	AllowSharing             *bool   `json:"allowSharing,omitempty"`
	ShareDurationDays        *int    `json:"shareDurationDays,omitempty"`
	Theme                    *Theme  `json:"theme,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.WorkingHours == nil && p.Timezone == nil && p.AutoDetectBreaks == nil &&
		p.EnableNotifications == nil && p.EnableEmailNotifications == nil &&
		p.AllowSharing == nil && p.ShareDurationDays == nil && p.Theme == nil
}

type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportDaily, ReportWeekly, ReportMonthly:
		return true
	}
	return false
}

type SharedReport struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"userId"`
	ShareToken string     `json:"shareToken"`
	ReportType ReportType `json:"reportType"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Expired reports whether the share has an expiry that lies before now.
func (r SharedReport) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// EntryFilter is used to filter time entries in queries. From is inclusive,
// To is exclusive; both apply to start_time.
type EntryFilter struct {
	From   *time.Time
	To     *time.Time
	Status Status
	Limit  int
}
