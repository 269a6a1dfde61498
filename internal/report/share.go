package report

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/timecalc"
)

const (
	tokenBytes       = 16
	tokenAttempts    = 3
	maxShareDuration = 365
)

// Shared is a resolved share: the stored parameters plus the report computed
// from live data.
type Shared struct {
	Share  *store.SharedReport `json:"share"`
	Report *Report             `json:"report"`
}

func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a share token for the given report parameters. expiresInDays
// <= 0 means the share never expires.
func (s *Service) Issue(ctx context.Context, userID int64, t store.ReportType, start, end time.Time, expiresInDays int) (*store.SharedReport, error) {
	const msg = "failed to share report"

	if !t.Valid() {
		return nil, apperr.Invalid("report type must be daily, weekly or monthly")
	}
	if expiresInDays > maxShareDuration {
		return nil, apperr.Invalid("share duration must be at most %d days", maxShareDuration)
	}

	us, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "load settings for share", "user", userID, "err", err)
		return nil, apperr.Storage(msg, err)
	}
	if !us.AllowSharing {
		return nil, apperr.Invalid("report sharing is disabled in settings")
	}
	// Stored as dates: midnight UTC of the requested calendar days.
	from := timecalc.DateIn(start, time.UTC)
	to := timecalc.DateIn(end, time.UTC)
	if from.After(to) {
		return nil, apperr.Invalid("start date must not be after end date")
	}

	now := s.clock.Now()
	share := store.SharedReport{
		UserID:     userID,
		ReportType: t,
		StartDate:  from,
		EndDate:    to,
		CreatedAt:  now,
	}
	if expiresInDays > 0 {
		exp := now.Add(time.Duration(expiresInDays) * 24 * time.Hour)
		share.ExpiresAt = &exp
	}

	newToken := s.newToken
	if newToken == nil {
		newToken = randomToken
	}
	for range tokenAttempts {
		token, err := newToken()
		if err != nil {
			s.log.ErrorContext(ctx, "generate share token", "err", err)
			return nil, apperr.Storage(msg, err)
		}
		share.ShareToken = token
		created, err := s.repo.CreateSharedReport(ctx, share)
		if errors.Is(err, store.ErrConflict) {
			s.log.WarnContext(ctx, "share token collision", "user", userID)
			continue
		}
		if err != nil {
			s.log.ErrorContext(ctx, msg, "user", userID, "err", err)
			return nil, apperr.Storage(msg, err)
		}
		s.log.InfoContext(ctx, "report shared", "user", userID, "type", t, "expires", created.ExpiresAt)
		return created, nil
	}
	return nil, apperr.Storage(msg, errors.New("could not generate a unique share token"))
}

// Resolve looks up a token and recomputes its report.
func (s *Service) Resolve(ctx context.Context, token string) (*Shared, error) {
	share, err := s.repo.SharedReportByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Missing("shared report")
	}
	if err != nil {
		s.log.ErrorContext(ctx, "resolve share token", "err", err)
		return nil, apperr.Storage("failed to load shared report", err)
	}
	if share.Expired(s.clock.Now()) {
		return nil, apperr.Expiredf("this shared report has expired")
	}

	rep, err := s.Generate(ctx, share.UserID, share.ReportType, share.StartDate, share.EndDate)
	if err != nil {
		return nil, err
	}
	return &Shared{Share: share, Report: rep}, nil
}

// Revoke deletes a share owned by userID. It takes effect immediately.
func (s *Service) Revoke(ctx context.Context, token string, userID int64) error {
	err := s.repo.DeleteSharedReport(ctx, token, userID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Missing("shared report")
	}
	if err != nil {
		s.log.ErrorContext(ctx, "revoke share", "user", userID, "err", err)
		return apperr.Storage("failed to revoke shared report", err)
	}
	s.log.InfoContext(ctx, "share revoked", "user", userID)
	return nil
}

// List returns the user's shares, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]store.SharedReport, error) {
	shares, err := s.repo.ListSharedReports(ctx, userID)
	if err != nil {
		s.log.ErrorContext(ctx, "list shares", "user", userID, "err", err)
		return nil, apperr.Storage("failed to list shared reports", err)
	}
	if shares == nil {
		shares = []store.SharedReport{}
	}
	return shares, nil
}
