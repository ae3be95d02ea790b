package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	windows  WindowRepository
	interval int
}

func NewService(windows WindowRepository, slotIntervalMinutes int) *Service {
	if slotIntervalMinutes <= 0 {
		slotIntervalMinutes = DefaultSlotInterval
	}
	return &Service{windows: windows, interval: slotIntervalMinutes}
}

func (s *Service) CreateWindow(ctx context.Context, w *Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	return s.windows.Create(ctx, w)
}

// UpdateWindow modifies a window after verifying the caller owns it.
func (s *Service) UpdateWindow(ctx context.Context, doctorID uuid.UUID, w *Window) error {
	existing, err := s.windows.GetByID(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("window not found: %w", err)
	}
	if existing.DoctorID != doctorID {
		return fmt.Errorf("window %s does not belong to doctor %s", w.ID, doctorID)
	}
	w.DoctorID = doctorID
	if err := w.Validate(); err != nil {
		return err
	}
	return s.windows.Update(ctx, w)
}

func (s *Service) DeleteWindow(ctx context.Context, doctorID, id uuid.UUID) error {
	existing, err := s.windows.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("window not found: %w", err)
	}
	if existing.DoctorID != doctorID {
		return fmt.Errorf("window %s does not belong to doctor %s", id, doctorID)
	}
	return s.windows.Delete(ctx, id)
}

func (s *Service) ListWindows(ctx context.Context, doctorID uuid.UUID) ([]*Window, error) {
	return s.windows.ListByDoctor(ctx, doctorID)
}

// ReplaceForDoctor saves a doctor's full weekly availability as a diff
// against the stored set: new windows (zero ID) are created, changed ones
// updated, and stored windows missing from the desired set deleted. Each
// step is an independent idempotent operation, so a failure part-way leaves
// previously applied steps valid rather than an emptied schedule.
func (s *Service) ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, desired []*Window) ([]*Window, error) {
	for _, w := range desired {
		w.DoctorID = doctorID
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}

	existing, err := s.windows.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	current := make(map[uuid.UUID]*Window, len(existing))
	for _, w := range existing {
		current[w.ID] = w
	}

	kept := make(map[uuid.UUID]bool, len(desired))
	for _, w := range desired {
		if w.ID == uuid.Nil {
			if err := s.windows.Create(ctx, w); err != nil {
				return nil, fmt.Errorf("create window: %w", err)
			}
			continue
		}
		prev, ok := current[w.ID]
		if !ok {
			return nil, fmt.Errorf("unknown window id %s", w.ID)
		}
		kept[w.ID] = true
		if prev.sameShape(w) {
			continue
		}
		if err := s.windows.Update(ctx, w); err != nil {
			return nil, fmt.Errorf("update window %s: %w", w.ID, err)
		}
	}

	for _, w := range existing {
		if kept[w.ID] {
			continue
		}
		if err := s.windows.Delete(ctx, w.ID); err != nil {
			return nil, fmt.Errorf("delete window %s: %w", w.ID, err)
		}
	}

	return s.windows.ListByDoctor(ctx, doctorID)
}

// Slots resolves the bookable start times for one doctor on one date. An
// empty result means no availability and is not an error.
func (s *Service) Slots(ctx context.Context, doctorID uuid.UUID, date time.Time, intervalMinutes int) ([]string, error) {
	windows, err := s.windows.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if intervalMinutes <= 0 {
		intervalMinutes = s.interval
	}
	return ResolveSlots(windows, date, intervalMinutes), nil
}
