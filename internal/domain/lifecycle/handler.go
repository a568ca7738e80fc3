package lifecycle

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
	read.GET("/encounters", h.ListEncounters)
	read.GET("/encounters/:id", h.GetEncounter)

	write := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleWardClerk))
	write.POST("/encounters", h.Admit)
	write.PATCH("/encounters/:id/transfer", h.TransferBed)
	write.PATCH("/encounters/:id/transfer-doctor", h.TransferDoctor)
	write.PATCH("/encounters/:id/discharge", h.Discharge)
}

func respond(c echo.Context, err error) error {
	status, msg := apperr.AsHTTP(err)
	return echo.NewHTTPError(status, msg)
}

type admitRequest struct {
	HospitalID        string  `json:"hospital_id" validate:"required,uuid"`
	PatientID         string  `json:"patient_id" validate:"required,uuid"`
	BedID             string  `json:"bed_id" validate:"required,uuid"`
	AdmittingDoctorID *string `json:"admitting_doctor_id" validate:"omitempty,uuid"`
	AttendingDoctorID *string `json:"attending_doctor_id" validate:"omitempty,uuid"`
	AdmissionType     string  `json:"admission_type" validate:"required,oneof=elective emergency day_care observation"`
}

func (h *Handler) Admit(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}

	admit := AdmitRequest{
		HospitalID:    uuid.MustParse(req.HospitalID),
		PatientID:     uuid.MustParse(req.PatientID),
		BedID:         uuid.MustParse(req.BedID),
		AdmissionType: AdmissionType(req.AdmissionType),
		PerformedBy:   auth.UserIDFromContext(c.Request().Context()),
	}
	if req.AdmittingDoctorID != nil {
		id := uuid.MustParse(*req.AdmittingDoctorID)
		admit.AdmittingDoctorID = &id
	}
	if req.AttendingDoctorID != nil {
		id := uuid.MustParse(*req.AttendingDoctorID)
		admit.AttendingDoctorID = &id
	}

	enc, err := h.svc.Admit(c.Request().Context(), admit)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, enc)
}

func (h *Handler) GetEncounter(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	enc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, enc)
}

func (h *Handler) ListEncounters(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f ListFilter
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
	if err := parse("hospital_id", &f.HospitalID); err != nil {
		return err
	}
	if err := parse("patient_id", &f.PatientID); err != nil {
		return err
	}
	if err := parse("doctor_id", &f.DoctorID); err != nil {
		return err
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := EncounterStatus(raw)
		f.Status = &status
	}

	encs, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(encs, total, pg.Limit, pg.Offset))
}

type transferRequest struct {
	NewBedID string `json:"new_bed_id" validate:"required,uuid"`
	Reason   string `json:"reason"`
}

func (h *Handler) TransferBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}

	enc, err := h.svc.TransferBed(c.Request().Context(), id, uuid.MustParse(req.NewBedID),
		req.Reason, auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, enc)
}

type transferDoctorRequest struct {
	NewDoctorID string `json:"new_doctor_id" validate:"required,uuid"`
}

func (h *Handler) TransferDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}

	enc, err := h.svc.TransferDoctor(c.Request().Context(), id, uuid.MustParse(req.NewDoctorID))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, enc)
}

type dischargeRequest struct {
	Status  string `json:"status" validate:"omitempty,oneof=discharged lama absconded death"`
	Summary string `json:"summary" validate:"required"`
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req dischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}

	enc, err := h.svc.Discharge(c.Request().Context(), id, EncounterStatus(req.Status), req.Summary)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, enc)
}
