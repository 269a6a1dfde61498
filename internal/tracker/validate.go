package tracker

import (
	"sort"
	"time"

	"github.com/sadopc/punchclock/internal/apperr"
)

// span is a candidate interval checked before anything is written.
type span struct {
	start time.Time
	end   *time.Time
}

func validateEntryWindow(start, end *time.Time) error {
	if start == nil || start.IsZero() {
		return apperr.Invalid("start time is required")
	}
	if end != nil && !start.Before(*end) {
		return apperr.Invalid("end time must be after start time")
	}
	return nil
}

// validateBreaks checks every break against the entry window and against
// each other. breaks is sorted in place.
func validateBreaks(entryStart time.Time, entryEnd *time.Time, breaks []span) error {
	for _, b := range breaks {
		if b.start.IsZero() {
			return apperr.Invalid("break start time is required")
		}
		if b.end != nil && !b.start.Before(*b.end) {
			return apperr.Invalid("break end time must be after break start time")
		}
		if !entryStart.Before(b.start) {
			return apperr.Invalid("break must start after the entry starts")
		}
		if entryEnd != nil {
			if b.end == nil {
				return apperr.Invalid("break must have an end time when the entry has ended")
			}
			if !b.end.Before(*entryEnd) {
				return apperr.Invalid("break must end before the entry ends")
			}
		}
	}

	sort.SliceStable(breaks, func(i, j int) bool {
		return breaks[i].start.Before(breaks[j].start)
	})
	for i := 1; i < len(breaks); i++ {
		prev := breaks[i-1]
		if prev.end == nil {
			return apperr.Invalid("only the last break may be open")
		}
		if prev.end.After(breaks[i].start) {
			return apperr.Invalid("breaks must not overlap")
		}
	}
	return nil
}
