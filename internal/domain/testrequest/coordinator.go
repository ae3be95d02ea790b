package testrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthbridge/portal/internal/platform/auth"
)

// ErrAlreadyLinked rejects attaching a second, different follow-up
// appointment to a request that is already linked.
var ErrAlreadyLinked = errors.New("test request already has a follow-up appointment")

// Coordinator drives the test request lifecycle. Every method takes the
// caller's identity explicitly; nothing is read from ambient session state.
type Coordinator struct {
	requests  Repository
	log       zerolog.Logger
	linkDelay time.Duration
}

// NewCoordinator builds a coordinator. linkDelay covers the propagation
// lag between a follow-up link write and its visibility on a fresh read.
func NewCoordinator(requests Repository, log zerolog.Logger, linkDelay time.Duration) *Coordinator {
	return &Coordinator{requests: requests, log: log, linkDelay: linkDelay}
}

func (co *Coordinator) Create(ctx context.Context, ident auth.Identity, tr *TestRequest) error {
	tr.ID = uuid.Nil
	tr.DoctorID = DoctorID{UUID: ident.UserID}
	tr.Status = StatusPending
	tr.FollowupAppointmentID = nil
	tr.HasResults = false
	tr.ResultsCount = 0
	if err := tr.Validate(); err != nil {
		return err
	}
	return co.requests.Create(ctx, tr)
}

func (co *Coordinator) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*TestRequest, error) {
	tr, err := co.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !co.canSee(ident, tr) {
		return nil, fmt.Errorf("test request %s is not visible to %s", id, ident.UserID)
	}
	return tr, nil
}

// ListFor returns the requests the caller participates in: issued ones for
// a doctor, received ones for a patient.
func (co *Coordinator) ListFor(ctx context.Context, ident auth.Identity, limit, offset int) ([]*TestRequest, int, error) {
	switch ident.Role {
	case auth.RoleDoctor:
		return co.requests.ListByDoctor(ctx, ident.UserID, limit, offset)
	case auth.RolePatient:
		return co.requests.ListByPatient(ctx, ident.UserID, limit, offset)
	default:
		return nil, 0, fmt.Errorf("role %q has no test request view", ident.Role)
	}
}

// NeedsFollowup reports whether the request is still waiting for its
// follow-up appointment to be booked.
func (co *Coordinator) NeedsFollowup(tr *TestRequest) bool {
	return tr.Status == StatusPending && tr.FollowupAppointmentID == nil
}

// CanUpload gates result uploads on the request being pending. An upload
// before the follow-up link exists is allowed but logged, since results
// arriving with no appointment to discuss them is usually an ordering bug
// upstream.
func (co *Coordinator) CanUpload(tr *TestRequest) bool {
	if tr.Status != StatusPending {
		return false
	}
	if tr.FollowupAppointmentID == nil {
		co.log.Warn().
			Str("test_request_id", tr.ID.String()).
			Msg("result upload on pending request with no follow-up appointment linked")
	}
	return true
}

// InitiateFollowupBooking builds the prefilled booking payload for the
// request's follow-up consultation.
func (co *Coordinator) InitiateFollowupBooking(tr *TestRequest) (*BookingIntent, error) {
	if !co.NeedsFollowup(tr) {
		return nil, fmt.Errorf("test request %s does not need a follow-up", tr.ID)
	}
	if tr.DoctorID.UUID == uuid.Nil {
		return nil, fmt.Errorf("test request %s has no ordering doctor", tr.ID)
	}
	return &BookingIntent{
		DoctorID:        tr.DoctorID.UUID,
		Reason:          fmt.Sprintf("Follow-up consultation to discuss %s results", tr.TestName),
		OpenBookingForm: true,
		IsFollowUp:      true,
		TestRequestID:   tr.ID,
	}, nil
}

// AttachFollowup links the booked appointment to the request exactly once.
// Re-attaching the same appointment is an idempotent success; a different
// one is rejected with ErrAlreadyLinked.
func (co *Coordinator) AttachFollowup(ctx context.Context, id, appointmentID uuid.UUID) error {
	tr, err := co.requests.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load test request: %w", err)
	}
	if tr.FollowupAppointmentID != nil {
		if *tr.FollowupAppointmentID == appointmentID {
			return nil
		}
		return ErrAlreadyLinked
	}
	return co.requests.SetFollowup(ctx, id, appointmentID)
}

// RefreshAfterLink re-reads the request after AttachFollowup. The store
// may serve a stale row for a moment after the link write, so a read that
// still shows no follow-up waits out the propagation delay and retries
// once. The second read is returned as-is either way.
func (co *Coordinator) RefreshAfterLink(ctx context.Context, id uuid.UUID) (*TestRequest, error) {
	tr, err := co.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tr.FollowupAppointmentID != nil {
		return tr, nil
	}

	select {
	case <-time.After(co.linkDelay):
	case <-ctx.Done():
		return tr, ctx.Err()
	}

	fresh, err := co.requests.GetByID(ctx, id)
	if err != nil {
		co.log.Warn().Err(err).
			Str("test_request_id", id.String()).
			Msg("refresh after follow-up link failed, returning first read")
		return tr, nil
	}
	return fresh, nil
}

// UploadResult attaches a result document to the patient's own request.
func (co *Coordinator) UploadResult(ctx context.Context, ident auth.Identity, id uuid.UUID, doc *ResultDocument) error {
	tr, err := co.requests.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load test request: %w", err)
	}
	if ident.Role != auth.RoleAdmin && tr.PatientID != ident.UserID {
		return fmt.Errorf("test request %s does not belong to %s", id, ident.UserID)
	}
	if !co.CanUpload(tr) {
		return fmt.Errorf("results cannot be uploaded to a %s test request", tr.Status)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	doc.TestRequestID = tr.ID
	doc.UploadedBy = ident.UserID
	return co.requests.AddResult(ctx, doc)
}

func (co *Coordinator) ListResults(ctx context.Context, ident auth.Identity, id uuid.UUID) ([]*ResultDocument, error) {
	if _, err := co.Get(ctx, ident, id); err != nil {
		return nil, err
	}
	return co.requests.ListResults(ctx, id)
}

func (co *Coordinator) canSee(ident auth.Identity, tr *TestRequest) bool {
	if ident.Role == auth.RoleAdmin {
		return true
	}
	return tr.DoctorID.UUID == ident.UserID || tr.PatientID == ident.UserID
}
