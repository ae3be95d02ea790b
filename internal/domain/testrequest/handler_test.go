package testrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthbridge/portal/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	co := NewCoordinator(repo, zerolog.Nop(), time.Millisecond)
	return NewHandler(co, zerolog.Nop()), repo, echo.New()
}

func asUser(c echo.Context, userID uuid.UUID, role string) {
	ctx := context.WithValue(c.Request().Context(), auth.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestHandler_CreateTestRequest(t *testing.T) {
	h, _, e := newTestHandler()
	doctorID := uuid.New()
	patientID := uuid.New()

	body := fmt.Sprintf(`{"patient_id":%q,"test_name":"Thyroid Panel","instructions":"Fast for 8 hours"}`, patientID)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, doctorID, auth.RoleDoctor)

	if err := h.CreateTestRequest(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var tr TestRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &tr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if tr.DoctorID.UUID != doctorID {
		t.Errorf("doctor id %s, want issuing caller %s", tr.DoctorID.UUID, doctorID)
	}
	if tr.Status != StatusPending {
		t.Errorf("status = %q, want pending", tr.Status)
	}
}

func TestHandler_FollowupIntent(t *testing.T) {
	h, repo, e := newTestHandler()
	doctorID := uuid.New()
	patientID := uuid.New()
	tr := seedRequest(t, repo, doctorID, patientID, StatusPending)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	if err := h.FollowupIntent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var intent BookingIntent
	if err := json.Unmarshal(rec.Body.Bytes(), &intent); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if intent.DoctorID != doctorID || !intent.OpenBookingForm || !intent.IsFollowUp {
		t.Errorf("unexpected intent: %+v", intent)
	}
}

func TestHandler_FollowupIntent_AlreadyLinked(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusPending)
	apptID := uuid.New()
	repo.requests[tr.ID].FollowupAppointmentID = &apptID

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	err := h.FollowupIntent(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for linked request, got %v", err)
	}
}

func TestHandler_AttachFollowup(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusPending)
	apptID := uuid.New()

	body := fmt.Sprintf(`{"appointment_id":%q}`, apptID)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	if err := h.AttachFollowup(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		TestRequest *TestRequest `json:"test_request"`
		Warning     string       `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Warning != "" {
		t.Errorf("unexpected warning: %q", resp.Warning)
	}
	if resp.TestRequest.FollowupAppointmentID == nil || *resp.TestRequest.FollowupAppointmentID != apptID {
		t.Errorf("response does not carry the link: %+v", resp.TestRequest.FollowupAppointmentID)
	}
}

// The appointment exists by the time linking runs, so a store failure here
// must not read as a failed booking.
func TestHandler_AttachFollowup_LinkFailureIsSoft(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusPending)
	repo.followupErr = errors.New("write timeout")

	body := fmt.Sprintf(`{"appointment_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	if err := h.AttachFollowup(c); err != nil {
		t.Fatalf("link failure surfaced as hard error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Warning == "" {
		t.Error("expected warning in response body")
	}
}

func TestHandler_AttachFollowup_DifferentAppointmentConflicts(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusPending)
	apptID := uuid.New()
	repo.requests[tr.ID].FollowupAppointmentID = &apptID

	body := fmt.Sprintf(`{"appointment_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	err := h.AttachFollowup(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

// A conflict detected only at write time, after the handler's own read saw
// no link, must still answer 409 rather than the soft warning.
func TestHandler_AttachFollowup_WriteTimeConflict(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusPending)
	apptID := uuid.New()
	repo.requests[tr.ID].FollowupAppointmentID = &apptID
	repo.staleReads = 2 // both pre-write reads miss the link

	body := fmt.Sprintf(`{"appointment_id":%q}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	err := h.AttachFollowup(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409 for write-time conflict, got %v", err)
	}
	if got := repo.requests[tr.ID].FollowupAppointmentID; got == nil || *got != apptID {
		t.Errorf("stored link changed: %v", got)
	}
}

func TestHandler_UploadResult(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusPending)

	body := `{"file_name":"scan.pdf","content_type":"application/pdf","size_bytes":22110,"note":"radiology scan"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	if err := h.UploadResult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := repo.requests[tr.ID].ResultsCount; got != 1 {
		t.Errorf("results count = %d, want 1", got)
	}
}

func TestHandler_UploadResult_CancelledRejected(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()
	tr := seedRequest(t, repo, uuid.New(), patientID, StatusCancelled)

	body := `{"file_name":"late.pdf","content_type":"application/pdf","size_bytes":100}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(tr.ID.String())
	asUser(c, patientID, auth.RolePatient)

	err := h.UploadResult(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_ListTestRequests(t *testing.T) {
	h, repo, e := newTestHandler()
	doctorID := uuid.New()
	seedRequest(t, repo, doctorID, uuid.New(), StatusPending)
	seedRequest(t, repo, doctorID, uuid.New(), StatusCompleted)
	seedRequest(t, repo, uuid.New(), uuid.New(), StatusPending)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, doctorID, auth.RoleDoctor)

	if err := h.ListTestRequests(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("doctor sees %d requests, want 2", resp.Total)
	}
}
