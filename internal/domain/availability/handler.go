package availability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthbridge/portal/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Windows are owned and managed by the doctor role only.
	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.GET("/availability", h.ListOwnWindows)
	doctorGroup.POST("/availability", h.CreateWindow)
	doctorGroup.PUT("/availability", h.ReplaceWindows)
	doctorGroup.PUT("/availability/:id", h.UpdateWindow)
	doctorGroup.DELETE("/availability/:id", h.DeleteWindow)

	// Patients read availability only through the derived slot view.
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	readGroup.GET("/doctors/:id/availability", h.ListDoctorWindows)
	readGroup.GET("/doctors/:id/slots", h.ResolveDoctorSlots)
}

func (h *Handler) CreateWindow(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	var w Window
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = uuid.Nil
	w.DoctorID = ident.UserID
	if err := h.svc.CreateWindow(c.Request().Context(), &w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) UpdateWindow(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var w Window
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = id
	if err := h.svc.UpdateWindow(c.Request().Context(), ident.UserID, &w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteWindow(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteWindow(c.Request().Context(), ident.UserID, id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOwnWindows(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	items, err := h.svc.ListWindows(c.Request().Context(), ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Window{}
	}
	return c.JSON(http.StatusOK, items)
}

// ReplaceWindows saves the doctor's full weekly schedule in one request.
func (h *Handler) ReplaceWindows(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown caller")
	}
	var desired []*Window
	if err := c.Bind(&desired); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	items, err := h.svc.ReplaceForDoctor(c.Request().Context(), ident.UserID, desired)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if items == nil {
		items = []*Window{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListDoctorWindows(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	items, err := h.svc.ListWindows(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Window{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ResolveDoctorSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter required (YYYY-MM-DD)")
	}
	interval := 0
	if v := c.QueryParam("interval"); v != "" {
		interval, err = strconv.Atoi(v)
		if err != nil || interval <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "interval must be a positive integer")
		}
	}
	slots, err := h.svc.Slots(c.Request().Context(), doctorID, date, interval)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":  c.QueryParam("date"),
		"slots": slots,
	})
}
