package availability

import (
	"fmt"
	"time"
)

// DefaultSlotInterval is the bookable slot length in minutes when the caller
// does not specify one.
const DefaultSlotInterval = 30

// ParseClock parses an "HH:MM" 24-hour time-of-day into minutes from
// midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ResolveSlots converts recurring weekly windows into the discrete bookable
// start times for one calendar date. It is a pure function: safe to call on
// every date change, identical inputs yield identical output.
//
// A window contributes start times t with t+interval <= end, in increasing
// order. Windows that do not match the date's weekday, are marked
// unavailable, or are malformed/inverted contribute nothing. Sequences from
// multiple windows are concatenated in window order; overlapping windows may
// legally produce duplicate or out-of-order entries. An empty result means
// "no slots available" and is not an error.
func ResolveSlots(windows []*Window, date time.Time, intervalMinutes int) []string {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultSlotInterval
	}

	day := WeekdayOf(date)
	slots := []string{}
	for _, w := range windows {
		if w.DayOfWeek != day || !w.IsAvailable {
			continue
		}
		start, err := ParseClock(w.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(w.EndTime)
		if err != nil {
			continue
		}
		for t := start; t+intervalMinutes <= end; t += intervalMinutes {
			slots = append(slots, FormatClock(t))
		}
	}
	return slots
}
