package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthbridge/portal/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockApptRepo, *echo.Echo) {
	repo := newMockApptRepo()
	h := NewHandler(NewService(repo, 30))
	return h, repo, echo.New()
}

func asUser(c echo.Context, userID uuid.UUID, role string) {
	ctx := context.WithValue(c.Request().Context(), auth.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

func TestHandler_SubmitAppointment(t *testing.T) {
	h, repo, e := newTestHandler()
	patientID := uuid.New()

	body := fmt.Sprintf(`{"doctor_id":%q,"date":%q,"start_time":"09:30","type":"virtual","reason":"recurring chest pain after exercise"}`,
		uuid.New(), futureDate())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, patientID, auth.RolePatient)

	if err := h.SubmitAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.PatientID != patientID {
		t.Errorf("patient id %s, want session user %s", appt.PatientID, patientID)
	}
	if appt.EndTime != "10:00" {
		t.Errorf("end time = %q, want 10:00", appt.EndTime)
	}
	if repo.creates != 1 {
		t.Errorf("expected one create, got %d", repo.creates)
	}
}

func TestHandler_SubmitAppointment_PatientIDFromSessionOnly(t *testing.T) {
	h, _, e := newTestHandler()
	patientID := uuid.New()

	// A patient_id in the body is ignored.
	body := fmt.Sprintf(`{"doctor_id":%q,"patient_id":%q,"date":%q,"start_time":"09:30","type":"in-person","reason":"annual physical examination"}`,
		uuid.New(), uuid.New(), futureDate())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, patientID, auth.RolePatient)

	if err := h.SubmitAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.PatientID != patientID {
		t.Errorf("body patient_id overrode the session: %s", appt.PatientID)
	}
}

func TestHandler_SubmitAppointment_ValidationFieldMap(t *testing.T) {
	h, repo, e := newTestHandler()

	body := `{"date":"2020-01-01","start_time":"9am","type":"phone","reason":"no"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, uuid.New(), auth.RolePatient)

	if err := h.SubmitAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"doctor_id", "date", "start_time", "type", "reason"} {
		if _, ok := resp.Fields[field]; !ok {
			t.Errorf("missing field error %q in %v", field, resp.Fields)
		}
	}
	if repo.creates != 0 {
		t.Error("invalid submission reached the store")
	}
}

func TestHandler_SubmitAppointment_SlotConflict(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.createErr = ErrSlotUnavailable

	body := fmt.Sprintf(`{"doctor_id":%q,"date":%q,"start_time":"09:30","type":"virtual","reason":"follow-up on blood work results"}`,
		uuid.New(), futureDate())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	asUser(c, uuid.New(), auth.RolePatient)

	err := h.SubmitAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_ListAppointments_RoleScoped(t *testing.T) {
	h, repo, e := newTestHandler()
	doctorID := uuid.New()
	patientID := uuid.New()

	seed := func(d, p uuid.UUID) {
		a := &Appointment{DoctorID: d, PatientID: p, Date: futureDate(),
			StartTime: "09:00", EndTime: "09:30", Type: TypeInPerson, Reason: "seeded appointment entry"}
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	seed(doctorID, patientID)
	seed(doctorID, uuid.New())
	seed(uuid.New(), patientID)

	list := func(userID uuid.UUID, role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		asUser(c, userID, role)
		if err := h.ListAppointments(c); err != nil {
			t.Fatalf("ListAppointments as %s: %v", role, err)
		}
		var resp struct {
			Data  []*Appointment `json:"data"`
			Total int            `json:"total"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return resp.Total
	}

	if got := list(doctorID, auth.RoleDoctor); got != 2 {
		t.Errorf("doctor sees %d appointments, want 2", got)
	}
	if got := list(patientID, auth.RolePatient); got != 2 {
		t.Errorf("patient sees %d appointments, want 2", got)
	}
}

func TestHandler_GetAppointment_AccessDenied(t *testing.T) {
	h, repo, e := newTestHandler()

	a := &Appointment{DoctorID: uuid.New(), PatientID: uuid.New(),
		Date: futureDate(), StartTime: "09:00", EndTime: "09:30",
		Type: TypeInPerson, Reason: "seeded appointment entry", CreatedAt: time.Now()}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	asUser(c, uuid.New(), auth.RolePatient)

	err := h.GetAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unrelated caller, got %v", err)
	}
}
