package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/portal/internal/domain/availability"
)

type Service struct {
	appointments AppointmentRepository
	duration     int
}

func NewService(appointments AppointmentRepository, durationMinutes int) *Service {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	return &Service{appointments: appointments, duration: durationMinutes}
}

// Submit validates the request, derives the end time, and performs exactly
// one create against the store. Nothing is persisted and no state changes
// when any step fails; the caller may correct the form and resubmit.
func (s *Service) Submit(ctx context.Context, req *Request) (*Appointment, error) {
	if err := req.Validate(time.Now()); err != nil {
		return nil, err
	}

	start, err := availability.ParseClock(req.StartTime)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"start_time": err.Error()}}
	}
	end := start + s.duration
	if end >= 24*60 {
		return nil, &ValidationError{Fields: map[string]string{
			"start_time": "appointment cannot run past midnight",
		}}
	}

	appt := &Appointment{
		DoctorID:    req.DoctorID,
		PatientID:   req.PatientID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     availability.FormatClock(end),
		Type:        req.Type,
		Reason:      req.Reason,
		Notes:       req.Notes,
		InsuranceID: req.InsuranceID,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		if err == ErrSlotUnavailable {
			return nil, err
		}
		return nil, fmt.Errorf("submit appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}
