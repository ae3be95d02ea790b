package booking

import (
	"context"

	"github.com/google/uuid"
)

// AppointmentRepository is the scheduling store. Create assigns the
// appointment id; a double-booked slot surfaces as ErrSlotUnavailable.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
