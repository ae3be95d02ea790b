package testrequest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusCompleted: true, StatusCancelled: true,
}

// DoctorID tolerates both wire shapes seen in the field: a bare id string
// or an object carrying an "id" key. Either way it normalizes to the id.
type DoctorID struct {
	uuid.UUID
}

func (d *DoctorID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid doctor id %q: %w", s, err)
		}
		d.UUID = id
		return nil
	}
	var obj struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("invalid doctor reference: %w", err)
	}
	d.UUID = obj.ID
	return nil
}

func (d DoctorID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UUID.String())
}

// TestRequest is a diagnostic test a doctor asks a patient to complete.
// A pending request may gain exactly one follow-up appointment link; the
// backend alone moves it to completed or cancelled.
type TestRequest struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	AppointmentID         *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	DoctorID              DoctorID   `db:"doctor_id" json:"doctor_id"`
	PatientID             uuid.UUID  `db:"patient_id" json:"patient_id"`
	TestName              string     `db:"test_name" json:"test_name"`
	Description           string     `db:"description" json:"description,omitempty"`
	Instructions          string     `db:"instructions" json:"instructions,omitempty"`
	Notes                 string     `db:"notes" json:"notes,omitempty"`
	Status                string     `db:"status" json:"status"`
	FollowupAppointmentID *uuid.UUID `db:"followup_appointment_id" json:"followup_appointment_id,omitempty"`
	HasResults            bool       `db:"has_results" json:"has_results"`
	ResultsCount          int        `db:"results_count" json:"results_count"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

func (tr *TestRequest) Validate() error {
	if tr.DoctorID.UUID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if tr.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if strings.TrimSpace(tr.TestName) == "" {
		return fmt.Errorf("test_name is required")
	}
	if tr.Status == "" {
		tr.Status = StatusPending
	}
	if !validStatuses[tr.Status] {
		return fmt.Errorf("invalid status: %s", tr.Status)
	}
	return nil
}

// BookingIntent is the prefilled payload handed to the booking flow when a
// patient schedules the follow-up for a test request.
type BookingIntent struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	Reason          string    `json:"reason"`
	OpenBookingForm bool      `json:"open_booking_form"`
	IsFollowUp      bool      `json:"is_follow_up"`
	TestRequestID   uuid.UUID `json:"test_request_id"`
}

// ResultDocument records one uploaded result file's metadata. The bytes
// themselves live in object storage keyed by the document id.
type ResultDocument struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TestRequestID uuid.UUID `db:"test_request_id" json:"test_request_id"`
	FileName      string    `db:"file_name" json:"file_name"`
	ContentType   string    `db:"content_type" json:"content_type"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	Note          string    `db:"note" json:"note,omitempty"`
	UploadedBy    uuid.UUID `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (d *ResultDocument) Validate() error {
	if strings.TrimSpace(d.FileName) == "" {
		return fmt.Errorf("file_name is required")
	}
	if d.SizeBytes <= 0 {
		return fmt.Errorf("size_bytes must be positive")
	}
	return nil
}
