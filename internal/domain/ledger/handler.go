package ledger

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/auth"
	"github.com/hms/ipd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleWardClerk))
	read.GET("/encounters/:id/allocations", h.AllocationsByEncounter)
	read.GET("/beds/:id/allocations", h.AllocationsByBed)
}

func (h *Handler) AllocationsByEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	allocs, total, err := h.svc.HistoryByEncounter(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		status, msg := apperr.AsHTTP(err)
		return echo.NewHTTPError(status, msg)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(allocs, total, pg.Limit, pg.Offset))
}

func (h *Handler) AllocationsByBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	allocs, total, err := h.svc.HistoryByBed(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		status, msg := apperr.AsHTTP(err)
		return echo.NewHTTPError(status, msg)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(allocs, total, pg.Limit, pg.Offset))
}
