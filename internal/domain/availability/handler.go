package availability

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleWardClerk))
	read.GET("/beds/available", h.AvailableBeds)
	read.GET("/structure", h.Structure)
}

func (h *Handler) AvailableBeds(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.QueryParam("hospital_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}

	f := Filter{HospitalID: hospitalID}
	parse := func(name string, dst **uuid.UUID) error {
		if raw := c.QueryParam(name); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
			}
			*dst = &id
		}
		return nil
	}
	if err := parse("floor_id", &f.FloorID); err != nil {
		return err
	}
	if err := parse("ward_id", &f.WardID); err != nil {
		return err
	}
	if err := parse("room_id", &f.RoomID); err != nil {
		return err
	}
	if err := parse("exclude_bed_id", &f.ExcludeBedID); err != nil {
		return err
	}

	beds, err := h.svc.AvailableBeds(c.Request().Context(), f)
	if err != nil {
		status, msg := apperr.AsHTTP(err)
		return echo.NewHTTPError(status, msg)
	}
	if beds == nil {
		beds = []*AvailableBed{}
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) Structure(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.QueryParam("hospital_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}
	snap, err := h.svc.Snapshot(c.Request().Context(), hospitalID)
	if err != nil {
		status, msg := apperr.AsHTTP(err)
		return echo.NewHTTPError(status, msg)
	}
	return c.JSON(http.StatusOK, snap)
}
