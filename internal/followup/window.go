package followup

import (
	"fmt"
	"time"
)

// SendWindow is the daily local-time window during which follow-up texts
// may be scheduled. The production window runs 7 PM to 7 AM; Override
// bypasses the gate entirely.
type SendWindow struct {
	StartMinutes int
	EndMinutes   int
	Override     bool
	location     *time.Location
}

// ParseSendWindow builds a window from HH:MM strings and a timezone name.
func ParseSendWindow(start, end, tz string, override bool) (SendWindow, error) {
	loc := time.UTC
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return SendWindow{}, fmt.Errorf("followup: load send window tz: %w", err)
		}
	}
	startMin, err := parseClock(start)
	if err != nil {
		return SendWindow{}, fmt.Errorf("followup: parse send window start: %w", err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return SendWindow{}, fmt.Errorf("followup: parse send window end: %w", err)
	}
	return SendWindow{
		StartMinutes: startMin,
		EndMinutes:   endMin,
		Override:     override,
		location:     loc,
	}, nil
}

func parseClock(v string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("empty clock")
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location returns the window's timezone.
func (w SendWindow) Location() *time.Location {
	if w.location == nil {
		return time.UTC
	}
	return w.location
}

// Allows reports whether a follow-up may be scheduled at the given moment.
func (w SendWindow) Allows(now time.Time) bool {
	if w.Override {
		return true
	}
	local := now.In(w.Location())
	minutes := local.Hour()*60 + local.Minute()
	if w.StartMinutes == w.EndMinutes {
		return true
	}
	if w.StartMinutes < w.EndMinutes {
		return minutes >= w.StartMinutes && minutes < w.EndMinutes
	}
	// Window crosses midnight.
	return minutes >= w.StartMinutes || minutes < w.EndMinutes
}
