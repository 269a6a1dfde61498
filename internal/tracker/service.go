// Package tracker implements the work-session state machine, manual entry
// editing and per-user settings on top of a store.Repository.
package tracker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/store"
)

type Service struct {
	repo  store.Repository
	clock clock.Clock
	log   *slog.Logger
}

func NewService(repo store.Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, clock: clk, log: logger}
}

// fail classifies err for the caller. Errors that are already classified pass
// through; anything else is logged and replaced by a generic message.
func (s *Service) fail(ctx context.Context, userID int64, message string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	s.log.ErrorContext(ctx, message, "user", userID, "err", err)
	return apperr.Storage(message, err)
}

// notFound maps store.ErrNotFound onto the NotFound kind and defers
// everything else to fail.
func (s *Service) notFound(ctx context.Context, userID int64, what, message string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Missing(what)
	}
	return s.fail(ctx, userID, message, err)
}
