package store

import (
	"context"
	"fmt"
)

const settingsColumns = `user_id, working_hours, timezone, auto_detect_breaks, enable_notifications,
	enable_email_notifications, allow_sharing, share_duration_days, theme, created_at, updated_at`

// GetSettings returns the user's settings, creating the defaults row on first
// access.
func (s *Store) GetSettings(ctx context.Context, userID int64) (*UserSettings, error) {
	if err := s.ensureSettings(ctx, userID); err != nil {
		return nil, err
	}
	return s.readSettings(ctx, userID)
}

// UpdateSettings applies patch on top of the stored (or default) settings.
func (s *Store) UpdateSettings(ctx context.Context, userID int64, patch SettingsPatch) (*UserSettings, error) {
	if err := s.ensureSettings(ctx, userID); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.readSettings(ctx, userID)
	}

	_, err := s.q.ExecContext(ctx, `
		UPDATE user_settings SET
			working_hours              = COALESCE(?, working_hours),
			timezone                   = COALESCE(?, timezone),
			auto_detect_breaks         = COALESCE(?, auto_detect_breaks),
			enable_notifications       = COALESCE(?, enable_notifications),
			enable_email_notifications = COALESCE(?, enable_email_notifications),
			allow_sharing              = COALESCE(?, allow_sharing),
			share_duration_days        = COALESCE(?, share_duration_days),
			theme                      = COALESCE(?, theme),
			updated_at                 = ?
		WHERE user_id = ?`,
		optional(patch.WorkingHours),
		optional(patch.Timezone),
		optional(patch.AutoDetectBreaks),
		optional(patch.EnableNotifications),
		optional(patch.EnableEmailNotifications),
		optional(patch.AllowSharing),
		optional(patch.ShareDurationDays),
		themeArg(patch.Theme),
		formatTime(nowUTC()),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.readSettings(ctx, userID)
}

func (s *Store) ensureSettings(ctx context.Context, userID int64) error {
	now := formatTime(nowUTC())
	_, err := s.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_settings (user_id, timezone, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, s.defaultTimezone, now, now,
	)
	if err != nil {
		return fmt.Errorf("create default settings: %w", err)
	}
	return nil
}

func (s *Store) readSettings(ctx context.Context, userID int64) (*UserSettings, error) {
	var us UserSettings
	var theme, createdAt, updatedAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM user_settings WHERE user_id = ?`, userID,
	).Scan(
		&us.UserID, &us.WorkingHours, &us.Timezone, &us.AutoDetectBreaks, &us.EnableNotifications,
		&us.EnableEmailNotifications, &us.AllowSharing, &us.ShareDurationDays, &theme, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, classify("get settings", err)
	}
	us.Theme = Theme(theme)
	if us.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if us.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &us, nil
}

func themeArg(t *Theme) any {
	if t == nil {
		return nil
	}
	return string(*t)
}
