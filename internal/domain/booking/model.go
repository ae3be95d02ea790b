package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/healthbridge/portal/internal/domain/availability"
)

const (
	TypeInPerson = "in-person"
	TypeVirtual  = "virtual"

	ReasonMinLen = 10
	ReasonMaxLen = 500
	NotesMaxLen  = 1000

	DefaultDurationMinutes = 30
)

// ErrSlotUnavailable is the generic fallback when the store rejects a
// create without a usable field breakdown, including double-booking.
var ErrSlotUnavailable = errors.New("the selected slot is unavailable, please pick another time")

// ValidationError carries a field -> message map so callers can render
// errors next to the offending form fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Request is a patient's appointment submission before it is accepted by
// the store. PatientID comes from the authenticated session, never the body.
type Request struct {
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"-"`
	Date        string    `json:"date"`       // YYYY-MM-DD
	StartTime   string    `json:"start_time"` // HH:MM
	Type        string    `json:"type"`
	Reason      string    `json:"reason"`
	Notes       string    `json:"notes"`
	InsuranceID *int      `json:"insurance_id"`
}

// Appointment is the accepted, store-identified result of a submission.
type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Date        string    `db:"appt_date" json:"date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	Type        string    `db:"appt_type" json:"type"`
	Reason      string    `db:"reason" json:"reason"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	InsuranceID *int      `db:"insurance_id" json:"insurance_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Normalize trims free-text fields and drops an insurance reference that
// is not a positive id. A bad insurance value is never a rejection.
func (r *Request) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
	r.Notes = strings.TrimSpace(r.Notes)
	if r.InsuranceID != nil && *r.InsuranceID <= 0 {
		r.InsuranceID = nil
	}
}

// Validate runs every pre-submit check and reports all failures at once.
// The date comparison is by local calendar day, so booking for later today
// is allowed regardless of the current clock time.
func (r *Request) Validate(now time.Time) error {
	r.Normalize()
	fields := make(map[string]string)

	if r.DoctorID == uuid.Nil {
		fields["doctor_id"] = "doctor is required"
	}
	if r.PatientID == uuid.Nil {
		fields["patient_id"] = "patient is required"
	}

	if r.Date == "" {
		fields["date"] = "date is required"
	} else if d, err := time.Parse("2006-01-02", r.Date); err != nil {
		fields["date"] = "date must be in YYYY-MM-DD format"
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(today) {
			fields["date"] = "date cannot be in the past"
		}
	}

	if _, err := availability.ParseClock(r.StartTime); err != nil {
		fields["start_time"] = "start time must be in HH:MM 24-hour format"
	}

	switch r.Type {
	case TypeInPerson, TypeVirtual:
	default:
		fields["type"] = "type must be in-person or virtual"
	}

	// Length limits are character counts, not bytes.
	if n := utf8.RuneCountInString(r.Reason); n < ReasonMinLen {
		fields["reason"] = fmt.Sprintf("reason must be at least %d characters", ReasonMinLen)
	} else if n > ReasonMaxLen {
		fields["reason"] = fmt.Sprintf("reason must be at most %d characters", ReasonMaxLen)
	}
	if utf8.RuneCountInString(r.Notes) > NotesMaxLen {
		fields["notes"] = fmt.Sprintf("notes must be at most %d characters", NotesMaxLen)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
