package tracker

import (
	"context"
	"time"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/store"
)

const maxShareDurationDays = 365

// GetSettings returns the user's settings, creating defaults on first read.
func (s *Service) GetSettings(ctx context.Context, userID int64) (*store.UserSettings, error) {
	us, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, userID, "failed to load settings", err)
	}
	return us, nil
}

// UpdateSettings validates and applies a partial update.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, patch store.SettingsPatch) (*store.UserSettings, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	us, err := s.repo.UpdateSettings(ctx, userID, patch)
	if err != nil {
		return nil, s.fail(ctx, userID, "failed to update settings", err)
	}
	s.log.InfoContext(ctx, "settings updated", "user", userID)
	return us, nil
}

// Location loads the user's configured timezone, falling back to UTC when the
// stored name no longer resolves.
func (s *Service) Location(ctx context.Context, userID int64) (*time.Location, error) {
	us, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(us.Timezone)
	if err != nil {
		s.log.WarnContext(ctx, "unknown timezone in settings", "user", userID, "timezone", us.Timezone)
		return time.UTC, nil
	}
	return loc, nil
}

func validatePatch(p store.SettingsPatch) error {
	if p.WorkingHours != nil && (*p.WorkingHours < 1 || *p.WorkingHours > 24) {
		return apperr.Invalid("working hours must be between 1 and 24")
	}
	if p.Timezone != nil {
		if *p.Timezone == "" {
			return apperr.Invalid("timezone is required")
		}
		if _, err := time.LoadLocation(*p.Timezone); err != nil {
			return apperr.Invalid("unknown timezone %q", *p.Timezone)
		}
	}
	if p.ShareDurationDays != nil && (*p.ShareDurationDays < 0 || *p.ShareDurationDays > maxShareDurationDays) {
		return apperr.Invalid("share duration must be between 0 and %d days", maxShareDurationDays)
	}
	if p.Theme != nil {
		switch *p.Theme {
		case store.ThemeLight, store.ThemeDark, store.ThemeSystem:
		default:
			return apperr.Invalid("theme must be light, dark or system")
		}
	}
	return nil
}
