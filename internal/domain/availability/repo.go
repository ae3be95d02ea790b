package availability

import (
	"context"

	"github.com/google/uuid"
)

// WindowRepository is the external availability store. Identity is assigned
// by the store on Create.
type WindowRepository interface {
	Create(ctx context.Context, w *Window) error
	Update(ctx context.Context, w *Window) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Window, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Window, error)
}
