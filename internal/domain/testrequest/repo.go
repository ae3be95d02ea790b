package testrequest

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the test request store. SetFollowup and UpdateStatus are
// independent single-column writes; AddResult also bumps the request's
// result counters.
type Repository interface {
	Create(ctx context.Context, tr *TestRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestRequest, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*TestRequest, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestRequest, int, error)
	SetFollowup(ctx context.Context, id, appointmentID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	AddResult(ctx context.Context, doc *ResultDocument) error
	ListResults(ctx context.Context, testRequestID uuid.UUID) ([]*ResultDocument, error)
}
