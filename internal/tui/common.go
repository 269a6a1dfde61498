package tui

import (
	"time"

	"github.com/sadopc/punchclock/internal/tracker"
)

// --- Messages ---

type tickMsg time.Time

type sessionMsg struct {
	session *tracker.Session
	err     error
}
