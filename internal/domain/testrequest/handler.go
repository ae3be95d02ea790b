package testrequest

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healthbridge/portal/internal/platform/auth"
	"github.com/healthbridge/portal/pkg/pagination"
)

type Handler struct {
	co  *Coordinator
	log zerolog.Logger
}

func NewHandler(co *Coordinator, log zerolog.Logger) *Handler {
	return &Handler{co: co, log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.POST("/test-requests", h.CreateTestRequest)

	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	readGroup.GET("/test-requests", h.ListTestRequests)
	readGroup.GET("/test-requests/:id", h.GetTestRequest)
	readGroup.GET("/test-requests/:id/results", h.ListResults)

	patientGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.POST("/test-requests/:id/followup-intent", h.FollowupIntent)
	patientGroup.POST("/test-requests/:id/followup", h.AttachFollowup)
	patientGroup.POST("/test-requests/:id/results", h.UploadResult)
}

func (h *Handler) CreateTestRequest(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	var tr TestRequest
	if err := c.Bind(&tr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.co.Create(c.Request().Context(), ident, &tr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tr)
}

func (h *Handler) GetTestRequest(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tr, err := h.co.Get(c.Request().Context(), ident, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test request not found")
	}
	return c.JSON(http.StatusOK, tr)
}

func (h *Handler) ListTestRequests(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	p := pagination.FromContext(c)
	items, total, err := h.co.ListFor(c.Request().Context(), ident, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	if items == nil {
		items = []*TestRequest{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

// FollowupIntent hands the patient a prefilled booking payload for the
// follow-up consultation without creating anything yet.
func (h *Handler) FollowupIntent(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tr, err := h.co.Get(c.Request().Context(), ident, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test request not found")
	}
	intent, err := h.co.InitiateFollowupBooking(tr)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, intent)
}

// AttachFollowup links a booked appointment to the request. The booking
// already succeeded by the time this runs, so a link failure must not
// surface as a booking failure: the response stays 200 and carries a
// warning instead.
func (h *Handler) AttachFollowup(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		AppointmentID uuid.UUID `json:"appointment_id"`
	}
	if err := c.Bind(&body); err != nil || body.AppointmentID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment_id is required")
	}

	tr, err := h.co.Get(c.Request().Context(), ident, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test request not found")
	}

	if err := h.co.AttachFollowup(c.Request().Context(), id, body.AppointmentID); err != nil {
		if errors.Is(err, ErrAlreadyLinked) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		h.log.Warn().Err(err).
			Str("test_request_id", id.String()).
			Str("appointment_id", body.AppointmentID.String()).
			Msg("follow-up booked but could not be linked to the test request")
		return c.JSON(http.StatusOK, map[string]interface{}{
			"test_request": tr,
			"warning":      "appointment booked, but linking it to the test request failed; it will be reconciled later",
		})
	}

	fresh, err := h.co.RefreshAfterLink(c.Request().Context(), id)
	if err != nil {
		fresh = tr
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"test_request": fresh})
}

func (h *Handler) UploadResult(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var doc ResultDocument
	if err := c.Bind(&doc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.co.UploadResult(c.Request().Context(), ident, id, &doc); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *Handler) ListResults(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	docs, err := h.co.ListResults(c.Request().Context(), ident, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "test request not found")
	}
	if docs == nil {
		docs = []*ResultDocument{}
	}
	return c.JSON(http.StatusOK, docs)
}
