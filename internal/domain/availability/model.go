package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Weekday is the canonical day-of-week index used everywhere in the portal:
// Monday=1 through Sunday=7. Go's time.Weekday is Sunday-origin; the only
// conversion between the two happens in WeekdayOf.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// WeekdayOf maps a calendar date to the canonical Monday-origin index.
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	names := [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	if !w.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return names[w-1]
}

// Window is a recurring weekly interval during which a doctor accepts
// bookings. ID is zero for unsaved drafts and assigned by the store.
type Window struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   Weekday   `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Validate rejects malformed windows before they reach the store. Inverted
// or zero-length windows are an error, never silently corrected.
func (w *Window) Validate() error {
	if w.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if !w.DayOfWeek.Valid() {
		return fmt.Errorf("day_of_week must be between 1 (Monday) and 7 (Sunday), got %d", int(w.DayOfWeek))
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start_time %s must be before end_time %s", w.StartTime, w.EndTime)
	}
	return nil
}

// sameShape reports whether two windows describe the same weekly interval.
func (w *Window) sameShape(other *Window) bool {
	return w.DayOfWeek == other.DayOfWeek &&
		w.StartTime == other.StartTime &&
		w.EndTime == other.EndTime &&
		w.IsAvailable == other.IsAvailable
}
