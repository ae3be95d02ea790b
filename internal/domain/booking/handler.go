package booking

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthbridge/portal/internal/platform/auth"
	"github.com/healthbridge/portal/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patientGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.POST("/appointments", h.SubmitAppointment)

	listGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	listGroup.GET("/appointments", h.ListAppointments)
	listGroup.GET("/appointments/:id", h.GetAppointment)
}

func (h *Handler) SubmitAppointment(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.PatientID = ident.UserID

	appt, err := h.svc.Submit(c.Request().Context(), &req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
		case errors.Is(err, ErrSlotUnavailable):
			return echo.NewHTTPError(http.StatusConflict, ErrSlotUnavailable.Error())
		default:
			return echo.NewHTTPError(http.StatusBadGateway, "appointment could not be created, please try again")
		}
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	// Callers only see their own appointments.
	if ident.Role != auth.RoleAdmin && appt.PatientID != ident.UserID && appt.DoctorID != ident.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	p := pagination.FromContext(c)

	var (
		items []*Appointment
		total int
		err   error
	)
	switch ident.Role {
	case auth.RoleDoctor:
		items, total, err = h.svc.ListByDoctor(c.Request().Context(), ident.UserID, p.Limit, p.Offset)
	case auth.RolePatient:
		items, total, err = h.svc.ListByPatient(c.Request().Context(), ident.UserID, p.Limit, p.Offset)
	default:
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
