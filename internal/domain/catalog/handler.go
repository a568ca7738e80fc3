package catalog

import (
	"net/http"
	"time"

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
	// Read endpoints - any ward staff
	read := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleWardClerk))
	read.GET("/floors", h.ListFloors)
	read.GET("/wards", h.ListWards)
	read.GET("/rooms", h.ListRooms)
	read.GET("/rooms/:id", h.GetRoom)
	read.GET("/beds", h.ListBeds)
	read.GET("/beds/:id", h.GetBed)

	// Structure writes - admin only
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/floors", h.CreateFloor)
	admin.PATCH("/floors/:id", h.UpdateFloor)
	admin.DELETE("/floors/:id", h.DeleteFloor)
	admin.POST("/wards", h.CreateWard)
	admin.PATCH("/wards/:id", h.UpdateWard)
	admin.DELETE("/wards/:id", h.DeleteWard)
	admin.POST("/rooms", h.CreateRoom)
	admin.PATCH("/rooms/:id", h.UpdateRoom)
	admin.DELETE("/rooms/:id", h.DeleteRoom)
	admin.POST("/beds", h.CreateBed)
	admin.PATCH("/beds/:id", h.UpdateBed)
	admin.DELETE("/beds/:id", h.DeleteBed)

	// Bed status ops - housekeeping runs through nurses and ward clerks
	status := api.Group("", auth.RequireRole(auth.RoleNurse, auth.RoleWardClerk))
	status.PATCH("/beds/:id/status", h.UpdateBedStatus)
	status.PATCH("/beds/:id/clean", h.MarkBedCleaned)
	status.PATCH("/beds/:id/block", h.BlockBed)
}

func respond(c echo.Context, err error) error {
	status, msg := apperr.AsHTTP(err)
	return echo.NewHTTPError(status, msg)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Floors --

type createFloorRequest struct {
	HospitalID  string  `json:"hospital_id" validate:"required,uuid"`
	FloorNumber int     `json:"floor_number"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) CreateFloor(c echo.Context) error {
	var req createFloorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	floor := &Floor{
		HospitalID:  uuid.MustParse(req.HospitalID),
		FloorNumber: req.FloorNumber,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.svc.CreateFloor(c.Request().Context(), floor); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, floor)
}

func (h *Handler) ListFloors(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.QueryParam("hospital_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}
	floors, err := h.svc.ListFloors(c.Request().Context(), hospitalID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, floors)
}

type updateFloorRequest struct {
	FloorNumber *int    `json:"floor_number"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) UpdateFloor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateFloorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	floor, err := h.svc.UpdateFloor(c.Request().Context(), id, req.FloorNumber, req.Name, req.Description)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, floor)
}

func (h *Handler) DeleteFloor(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteFloor(c.Request().Context(), id); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Wards --

type createWardRequest struct {
	HospitalID   string  `json:"hospital_id" validate:"required,uuid"`
	FloorID      *string `json:"floor_id" validate:"omitempty,uuid"`
	Name         string  `json:"name" validate:"required"`
	Type         string  `json:"type" validate:"required"`
	GenderPolicy *string `json:"gender_policy"`
	Capacity     *int    `json:"capacity" validate:"omitempty,min=1"`
	Description  *string `json:"description"`
}

func (h *Handler) CreateWard(c echo.Context) error {
	var req createWardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	ward := &Ward{
		HospitalID:   uuid.MustParse(req.HospitalID),
		Name:         req.Name,
		Type:         req.Type,
		GenderPolicy: req.GenderPolicy,
		Capacity:     req.Capacity,
		Description:  req.Description,
	}
	if req.FloorID != nil {
		fid := uuid.MustParse(*req.FloorID)
		ward.FloorID = &fid
	}
	if err := h.svc.CreateWard(c.Request().Context(), ward); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, ward)
}

func (h *Handler) ListWards(c echo.Context) error {
	hospitalID, err := uuid.Parse(c.QueryParam("hospital_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "hospital_id is required")
	}
	var floorID *uuid.UUID
	if raw := c.QueryParam("floor_id"); raw != "" {
		fid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid floor_id")
		}
		floorID = &fid
	}
	wards, err := h.svc.ListWards(c.Request().Context(), hospitalID, floorID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, wards)
}

type updateWardRequest struct {
	FloorID      *string `json:"floor_id" validate:"omitempty,uuid"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	GenderPolicy *string `json:"gender_policy"`
	Capacity     *int    `json:"capacity" validate:"omitempty,min=1"`
	Description  *string `json:"description"`
}

func (h *Handler) UpdateWard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateWardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	upd := &Ward{
		Name:         req.Name,
		Type:         req.Type,
		GenderPolicy: req.GenderPolicy,
		Capacity:     req.Capacity,
		Description:  req.Description,
	}
	if req.FloorID != nil {
		fid := uuid.MustParse(*req.FloorID)
		upd.FloorID = &fid
	}
	ward, err := h.svc.UpdateWard(c.Request().Context(), id, upd)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, ward)
}

func (h *Handler) DeleteWard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteWard(c.Request().Context(), id); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Rooms --

type roomRequest struct {
	WardID     string   `json:"ward_id" validate:"omitempty,uuid"`
	RoomNumber string   `json:"room_number"`
	RoomName   *string  `json:"room_name"`
	Category   string   `json:"category"`
	Capacity   *int     `json:"capacity" validate:"omitempty,min=1"`
	Amenities  []string `json:"amenities"`
}

func (h *Handler) CreateRoom(c echo.Context) error {
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	wardID, err := uuid.Parse(req.WardID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "ward_id is required")
	}
	room := &Room{
		WardID:     wardID,
		RoomNumber: req.RoomNumber,
		RoomName:   req.RoomName,
		Category:   req.Category,
		Capacity:   req.Capacity,
		Amenities:  req.Amenities,
	}
	if err := h.svc.CreateRoom(c.Request().Context(), room); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *Handler) GetRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	room, err := h.svc.GetRoom(c.Request().Context(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *Handler) ListRooms(c echo.Context) error {
	wardID, err := uuid.Parse(c.QueryParam("ward_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "ward_id is required")
	}
	rooms, err := h.svc.ListRooms(c.Request().Context(), wardID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *Handler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req roomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	upd := &Room{
		RoomNumber: req.RoomNumber,
		RoomName:   req.RoomName,
		Category:   req.Category,
		Capacity:   req.Capacity,
		Amenities:  req.Amenities,
	}
	room, err := h.svc.UpdateRoom(c.Request().Context(), id, upd)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

func (h *Handler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRoom(c.Request().Context(), id); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Beds --

type bedRequest struct {
	RoomID    string   `json:"room_id" validate:"omitempty,uuid"`
	BedNumber string   `json:"bed_number"`
	BedName   *string  `json:"bed_name"`
	BedType   *string  `json:"bed_type"`
	Equipment []string `json:"equipment"`
	Notes     *string  `json:"notes"`
}

func (h *Handler) CreateBed(c echo.Context) error {
	var req bedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "room_id is required")
	}
	bed := &Bed{
		RoomID:    roomID,
		BedNumber: req.BedNumber,
		BedName:   req.BedName,
		BedType:   req.BedType,
		Equipment: req.Equipment,
		Notes:     req.Notes,
	}
	if err := h.svc.CreateBed(c.Request().Context(), bed); err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, bed)
}

func (h *Handler) GetBed(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	bed, err := h.svc.GetBed(c.Request().Context(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) ListBeds(c echo.Context) error {
	roomID, err := uuid.Parse(c.QueryParam("room_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "room_id is required")
	}
	beds, err := h.svc.ListBeds(c.Request().Context(), roomID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, beds)
}

func (h *Handler) UpdateBed(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req bedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	upd := &Bed{
		BedNumber: req.BedNumber,
		BedName:   req.BedName,
		BedType:   req.BedType,
		Equipment: req.Equipment,
		Notes:     req.Notes,
	}
	bed, err := h.svc.UpdateBed(c.Request().Context(), id, upd)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) DeleteBed(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteBed(c.Request().Context(), id); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type bedStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) UpdateBedStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req bedStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	bed, err := h.svc.UpdateBedStatus(c.Request().Context(), id, BedStatus(req.Status))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, bed)
}

func (h *Handler) MarkBedCleaned(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	bed, err := h.svc.MarkBedCleaned(c.Request().Context(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, bed)
}

type blockBedRequest struct {
	Reason string     `json:"reason" validate:"required"`
	Until  *time.Time `json:"until"`
}

func (h *Handler) BlockBed(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req blockBedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return respond(c, err)
	}
	bed, err := h.svc.BlockBed(c.Request().Context(), id, req.Reason, req.Until)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, bed)
}
