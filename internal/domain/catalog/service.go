package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/ipd/internal/platform/apperr"
)

// OccupancyChecker reports open allocations under a node of the hierarchy.
// The ledger package implements it; the indirection keeps the catalog from
// importing the ledger.
type OccupancyChecker interface {
	OpenAllocationsForBed(ctx context.Context, bedID uuid.UUID) (int, error)
	OpenAllocationsForRoom(ctx context.Context, roomID uuid.UUID) (int, error)
	OpenAllocationsForWard(ctx context.Context, wardID uuid.UUID) (int, error)
	OpenAllocationsForFloor(ctx context.Context, floorID uuid.UUID) (int, error)
}

type Service struct {
	repo      Repository
	occupancy OccupancyChecker
}

func NewService(repo Repository, occupancy OccupancyChecker) *Service {
	return &Service{repo: repo, occupancy: occupancy}
}

// -- Floors --

func (s *Service) CreateFloor(ctx context.Context, f *Floor) error {
	if f.HospitalID == uuid.Nil {
		return apperr.Validation("hospital_id is required")
	}
	if err := s.repo.CreateFloor(ctx, f); err != nil {
		return apperr.Internal(err)
	}
	f.Active = true
	return nil
}

func (s *Service) GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error) {
	f, err := s.repo.GetFloor(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("floor", id.String())
	}
	return f, nil
}

func (s *Service) ListFloors(ctx context.Context, hospitalID uuid.UUID) ([]*Floor, error) {
	floors, err := s.repo.ListFloors(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return floors, nil
}

// UpdateFloor patches the mutable floor fields. Nil leaves a field as is;
// floor_number takes a pointer because zero is the ground floor.
func (s *Service) UpdateFloor(ctx context.Context, id uuid.UUID, floorNumber *int, name, description *string) (*Floor, error) {
	floor, err := s.GetFloor(ctx, id)
	if err != nil {
		return nil, err
	}
	if floorNumber != nil {
		floor.FloorNumber = *floorNumber
	}
	if name != nil {
		floor.Name = name
	}
	if description != nil {
		floor.Description = description
	}
	if err := s.repo.UpdateFloor(ctx, floor); err != nil {
		return nil, apperr.Internal(err)
	}
	return floor, nil
}

// DeleteFloor soft-deletes a floor. It refuses while the floor still has
// active wards or any open allocation below it.
func (s *Service) DeleteFloor(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetFloor(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountActiveWardsByFloor(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n > 0 {
		return apperr.Conflict("floor has %d active ward(s); delete or move them first", n)
	}
	open, err := s.occupancy.OpenAllocationsForFloor(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if open > 0 {
		return apperr.Conflict("floor has %d patient(s) in beds below it", open)
	}
	if err := s.repo.DeactivateFloor(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// -- Wards --

func (s *Service) CreateWard(ctx context.Context, w *Ward) error {
	if w.HospitalID == uuid.Nil {
		return apperr.Validation("hospital_id is required")
	}
	if w.Name == "" {
		return apperr.Validation("name is required")
	}
	if !validWardTypes[w.Type] {
		return apperr.Validation("invalid ward type: %s", w.Type)
	}
	if w.GenderPolicy != nil && !validGenderPolicies[*w.GenderPolicy] {
		return apperr.Validation("invalid gender policy: %s", *w.GenderPolicy)
	}
	if w.FloorID != nil {
		floor, err := s.repo.GetFloor(ctx, *w.FloorID)
		if err != nil {
			return apperr.Internal(err)
		}
		if floor == nil || !floor.Active {
			return apperr.Validation("floor %s does not exist or is inactive", w.FloorID)
		}
	}
	if err := s.repo.CreateWard(ctx, w); err != nil {
		return apperr.Internal(err)
	}
	w.Active = true
	return nil
}

func (s *Service) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := s.repo.GetWard(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if w == nil {
		return nil, apperr.NotFound("ward", id.String())
	}
	return w, nil
}

func (s *Service) ListWards(ctx context.Context, hospitalID uuid.UUID, floorID *uuid.UUID) ([]*Ward, error) {
	wards, err := s.repo.ListWards(ctx, hospitalID, floorID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return wards, nil
}

func (s *Service) UpdateWard(ctx context.Context, id uuid.UUID, upd *Ward) (*Ward, error) {
	ward, err := s.GetWard(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != "" {
		ward.Name = upd.Name
	}
	if upd.Type != "" {
		if !validWardTypes[upd.Type] {
			return nil, apperr.Validation("invalid ward type: %s", upd.Type)
		}
		ward.Type = upd.Type
	}
	if upd.GenderPolicy != nil {
		if !validGenderPolicies[*upd.GenderPolicy] {
			return nil, apperr.Validation("invalid gender policy: %s", *upd.GenderPolicy)
		}
		ward.GenderPolicy = upd.GenderPolicy
	}
	if upd.Capacity != nil {
		ward.Capacity = upd.Capacity
	}
	if upd.Description != nil {
		ward.Description = upd.Description
	}
	if upd.FloorID != nil {
		floor, err := s.repo.GetFloor(ctx, *upd.FloorID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if floor == nil || !floor.Active {
			return nil, apperr.Validation("floor %s does not exist or is inactive", upd.FloorID)
		}
		ward.FloorID = upd.FloorID
	}
	if err := s.repo.UpdateWard(ctx, ward); err != nil {
		return nil, apperr.Internal(err)
	}
	return ward, nil
}

func (s *Service) DeleteWard(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetWard(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountActiveRoomsByWard(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n > 0 {
		return apperr.Conflict("ward has %d active room(s); delete or move them first", n)
	}
	open, err := s.occupancy.OpenAllocationsForWard(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if open > 0 {
		return apperr.Conflict("ward has %d patient(s) in its beds", open)
	}
	if err := s.repo.DeactivateWard(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// -- Rooms --

func (s *Service) CreateRoom(ctx context.Context, r *Room) error {
	if r.RoomNumber == "" {
		return apperr.Validation("room_number is required")
	}
	if !validRoomCategories[r.Category] {
		return apperr.Validation("invalid room category: %s", r.Category)
	}
	ward, err := s.repo.GetWard(ctx, r.WardID)
	if err != nil {
		return apperr.Internal(err)
	}
	if ward == nil || !ward.Active {
		return apperr.Validation("ward %s does not exist or is inactive", r.WardID)
	}
	if err := s.repo.CreateRoom(ctx, r); err != nil {
		return apperr.Internal(err)
	}
	r.Active = true
	return nil
}

func (s *Service) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	r, err := s.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if r == nil {
		return nil, apperr.NotFound("room", id.String())
	}
	return r, nil
}

func (s *Service) ListRooms(ctx context.Context, wardID uuid.UUID) ([]*Room, error) {
	rooms, err := s.repo.ListRooms(ctx, wardID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rooms, nil
}

func (s *Service) UpdateRoom(ctx context.Context, id uuid.UUID, upd *Room) (*Room, error) {
	room, err := s.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.RoomNumber != "" {
		room.RoomNumber = upd.RoomNumber
	}
	if upd.RoomName != nil {
		room.RoomName = upd.RoomName
	}
	if upd.Category != "" {
		if !validRoomCategories[upd.Category] {
			return nil, apperr.Validation("invalid room category: %s", upd.Category)
		}
		room.Category = upd.Category
	}
	if upd.Capacity != nil {
		room.Capacity = upd.Capacity
	}
	if upd.Amenities != nil {
		room.Amenities = upd.Amenities
	}
	if err := s.repo.UpdateRoom(ctx, room); err != nil {
		return nil, apperr.Internal(err)
	}
	return room, nil
}

func (s *Service) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetRoom(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountBedsByRoom(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n > 0 {
		return apperr.Conflict("room has %d bed(s); delete or move them first", n)
	}
	open, err := s.occupancy.OpenAllocationsForRoom(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if open > 0 {
		return apperr.Conflict("room has %d patient(s) in its beds", open)
	}
	if err := s.repo.DeactivateRoom(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// -- Beds --

func (s *Service) CreateBed(ctx context.Context, b *Bed) error {
	if b.BedNumber == "" {
		return apperr.Validation("bed_number is required")
	}
	if b.Status != "" && b.Status != BedAvailable {
		return apperr.Validation("new beds start as available")
	}
	room, err := s.repo.GetRoom(ctx, b.RoomID)
	if err != nil {
		return apperr.Internal(err)
	}
	if room == nil || !room.Active {
		return apperr.Validation("room %s does not exist or is inactive", b.RoomID)
	}
	if err := s.repo.CreateBed(ctx, b); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := s.repo.GetBed(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if b == nil {
		return nil, apperr.NotFound("bed", id.String())
	}
	return b, nil
}

func (s *Service) ListBeds(ctx context.Context, roomID uuid.UUID) ([]*Bed, error) {
	beds, err := s.repo.ListBeds(ctx, roomID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return beds, nil
}

func (s *Service) UpdateBed(ctx context.Context, id uuid.UUID, upd *Bed) (*Bed, error) {
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.BedNumber != "" {
		bed.BedNumber = upd.BedNumber
	}
	if upd.BedName != nil {
		bed.BedName = upd.BedName
	}
	if upd.BedType != nil {
		bed.BedType = upd.BedType
	}
	if upd.Equipment != nil {
		bed.Equipment = upd.Equipment
	}
	if upd.Notes != nil {
		bed.Notes = upd.Notes
	}
	if err := s.repo.UpdateBed(ctx, bed); err != nil {
		return nil, apperr.Internal(err)
	}
	return bed, nil
}

// UpdateBedStatus handles the manual status transitions. Occupied is owned by
// the admission workflow: it can neither be set nor cleared here.
func (s *Service) UpdateBedStatus(ctx context.Context, id uuid.UUID, status BedStatus) (*Bed, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid bed status: %s", status)
	}
	if status == BedOccupied {
		return nil, apperr.Validation("occupied is managed by admissions and transfers")
	}
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if bed.Status == BedOccupied {
		return nil, apperr.Conflict("bed %s is occupied; discharge or transfer the patient first", id)
	}

	bed.Status = status
	if status != BedBlocked {
		bed.BlockedReason = nil
		bed.BlockedUntil = nil
	}
	if err := s.repo.UpdateBedStatus(ctx, bed); err != nil {
		return nil, apperr.Internal(err)
	}
	return bed, nil
}

// MarkBedCleaned returns a bed to service and stamps the cleaning time.
func (s *Service) MarkBedCleaned(ctx context.Context, id uuid.UUID) (*Bed, error) {
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if bed.Status == BedOccupied {
		return nil, apperr.Conflict("bed %s is occupied", id)
	}

	now := time.Now().UTC()
	bed.Status = BedAvailable
	bed.LastCleanedAt = &now
	bed.BlockedReason = nil
	bed.BlockedUntil = nil
	if err := s.repo.UpdateBedStatus(ctx, bed); err != nil {
		return nil, apperr.Internal(err)
	}
	return bed, nil
}

// BlockBed takes a bed out of service with a reason and optional expiry.
func (s *Service) BlockBed(ctx context.Context, id uuid.UUID, reason string, until *time.Time) (*Bed, error) {
	if reason == "" {
		return nil, apperr.Validation("blocked_reason is required")
	}
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return nil, err
	}
	if bed.Status == BedOccupied {
		return nil, apperr.Conflict("bed %s is occupied", id)
	}

	bed.Status = BedBlocked
	bed.BlockedReason = &reason
	bed.BlockedUntil = until
	if err := s.repo.UpdateBedStatus(ctx, bed); err != nil {
		return nil, apperr.Internal(err)
	}
	return bed, nil
}

// DeleteBed hard-deletes a bed that has never held, or no longer holds, a
// patient.
func (s *Service) DeleteBed(ctx context.Context, id uuid.UUID) error {
	bed, err := s.GetBed(ctx, id)
	if err != nil {
		return err
	}
	if bed.Status == BedOccupied {
		return apperr.Conflict("bed %s is occupied; discharge or transfer the patient first", id)
	}
	open, err := s.occupancy.OpenAllocationsForBed(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if open > 0 {
		return apperr.Conflict("bed %s has an open allocation", id)
	}
	if err := s.repo.DeleteBed(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
