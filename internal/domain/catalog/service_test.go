package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hms/ipd/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	floors map[uuid.UUID]*Floor
	wards  map[uuid.UUID]*Ward
	rooms  map[uuid.UUID]*Room
	beds   map[uuid.UUID]*Bed
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		floors: make(map[uuid.UUID]*Floor),
		wards:  make(map[uuid.UUID]*Ward),
		rooms:  make(map[uuid.UUID]*Room),
		beds:   make(map[uuid.UUID]*Bed),
	}
}

func (m *mockRepo) CreateFloor(_ context.Context, f *Floor) error {
	f.ID = uuid.New()
	f.Active = true
	m.floors[f.ID] = f
	return nil
}

func (m *mockRepo) GetFloor(_ context.Context, id uuid.UUID) (*Floor, error) {
	return m.floors[id], nil
}

func (m *mockRepo) ListFloors(_ context.Context, hospitalID uuid.UUID) ([]*Floor, error) {
	var result []*Floor
	for _, f := range m.floors {
		if f.HospitalID == hospitalID && f.Active {
			result = append(result, f)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateFloor(_ context.Context, f *Floor) error {
	m.floors[f.ID] = f
	return nil
}

func (m *mockRepo) DeactivateFloor(_ context.Context, id uuid.UUID) error {
	if f, ok := m.floors[id]; ok {
		f.Active = false
	}
	return nil
}

func (m *mockRepo) CountActiveWardsByFloor(_ context.Context, floorID uuid.UUID) (int, error) {
	n := 0
	for _, w := range m.wards {
		if w.FloorID != nil && *w.FloorID == floorID && w.Active {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreateWard(_ context.Context, w *Ward) error {
	w.ID = uuid.New()
	w.Active = true
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) GetWard(_ context.Context, id uuid.UUID) (*Ward, error) {
	return m.wards[id], nil
}

func (m *mockRepo) ListWards(_ context.Context, hospitalID uuid.UUID, floorID *uuid.UUID) ([]*Ward, error) {
	var result []*Ward
	for _, w := range m.wards {
		if w.HospitalID != hospitalID || !w.Active {
			continue
		}
		if floorID != nil && (w.FloorID == nil || *w.FloorID != *floorID) {
			continue
		}
		result = append(result, w)
	}
	return result, nil
}

func (m *mockRepo) UpdateWard(_ context.Context, w *Ward) error {
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) DeactivateWard(_ context.Context, id uuid.UUID) error {
	if w, ok := m.wards[id]; ok {
		w.Active = false
	}
	return nil
}

func (m *mockRepo) CountActiveRoomsByWard(_ context.Context, wardID uuid.UUID) (int, error) {
	n := 0
	for _, r := range m.rooms {
		if r.WardID == wardID && r.Active {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreateRoom(_ context.Context, r *Room) error {
	r.ID = uuid.New()
	r.Active = true
	m.rooms[r.ID] = r
	return nil
}

func (m *mockRepo) GetRoom(_ context.Context, id uuid.UUID) (*Room, error) {
	return m.rooms[id], nil
}

func (m *mockRepo) ListRooms(_ context.Context, wardID uuid.UUID) ([]*Room, error) {
	var result []*Room
	for _, r := range m.rooms {
		if r.WardID == wardID && r.Active {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateRoom(_ context.Context, r *Room) error {
	m.rooms[r.ID] = r
	return nil
}

func (m *mockRepo) DeactivateRoom(_ context.Context, id uuid.UUID) error {
	if r, ok := m.rooms[id]; ok {
		r.Active = false
	}
	return nil
}

func (m *mockRepo) CountBedsByRoom(_ context.Context, roomID uuid.UUID) (int, error) {
	n := 0
	for _, b := range m.beds {
		if b.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreateBed(_ context.Context, b *Bed) error {
	b.ID = uuid.New()
	if b.Status == "" {
		b.Status = BedAvailable
	}
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) GetBed(_ context.Context, id uuid.UUID) (*Bed, error) {
	return m.beds[id], nil
}

func (m *mockRepo) ListBeds(_ context.Context, roomID uuid.UUID) ([]*Bed, error) {
	var result []*Bed
	for _, b := range m.beds {
		if b.RoomID == roomID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockRepo) UpdateBed(_ context.Context, b *Bed) error {
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) UpdateBedStatus(_ context.Context, b *Bed) error {
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) DeleteBed(_ context.Context, id uuid.UUID) error {
	delete(m.beds, id)
	return nil
}

func (m *mockRepo) ClaimBed(_ context.Context, id uuid.UUID) (bool, error) {
	b, ok := m.beds[id]
	if !ok || b.Status != BedAvailable {
		return false, nil
	}
	b.Status = BedOccupied
	return true, nil
}

func (m *mockRepo) ReleaseBed(_ context.Context, id uuid.UUID) error {
	if b, ok := m.beds[id]; ok && b.Status == BedOccupied {
		b.Status = BedCleaning
	}
	return nil
}

// -- Mock occupancy checker --

type mockOccupancy struct {
	openByBed   map[uuid.UUID]int
	openByRoom  map[uuid.UUID]int
	openByWard  map[uuid.UUID]int
	openByFloor map[uuid.UUID]int
}

func newMockOccupancy() *mockOccupancy {
	return &mockOccupancy{
		openByBed:   make(map[uuid.UUID]int),
		openByRoom:  make(map[uuid.UUID]int),
		openByWard:  make(map[uuid.UUID]int),
		openByFloor: make(map[uuid.UUID]int),
	}
}

func (m *mockOccupancy) OpenAllocationsForBed(_ context.Context, id uuid.UUID) (int, error) {
	return m.openByBed[id], nil
}

func (m *mockOccupancy) OpenAllocationsForRoom(_ context.Context, id uuid.UUID) (int, error) {
	return m.openByRoom[id], nil
}

func (m *mockOccupancy) OpenAllocationsForWard(_ context.Context, id uuid.UUID) (int, error) {
	return m.openByWard[id], nil
}

func (m *mockOccupancy) OpenAllocationsForFloor(_ context.Context, id uuid.UUID) (int, error) {
	return m.openByFloor[id], nil
}

// -- Fixtures --

func newTestService() (*Service, *mockRepo, *mockOccupancy) {
	repo := newMockRepo()
	occ := newMockOccupancy()
	return NewService(repo, occ), repo, occ
}

func seedHierarchy(t *testing.T, svc *Service) (*Floor, *Ward, *Room, *Bed) {
	t.Helper()
	ctx := context.Background()
	hospital := uuid.New()

	floor := &Floor{HospitalID: hospital, FloorNumber: 1}
	if err := svc.CreateFloor(ctx, floor); err != nil {
		t.Fatalf("create floor: %v", err)
	}
	ward := &Ward{HospitalID: hospital, FloorID: &floor.ID, Name: "General Ward A", Type: "general"}
	if err := svc.CreateWard(ctx, ward); err != nil {
		t.Fatalf("create ward: %v", err)
	}
	room := &Room{WardID: ward.ID, RoomNumber: "101", Category: "general"}
	if err := svc.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	bed := &Bed{RoomID: room.ID, BedNumber: "101-A"}
	if err := svc.CreateBed(ctx, bed); err != nil {
		t.Fatalf("create bed: %v", err)
	}
	return floor, ward, room, bed
}

// -- Tests --

func TestCreateWard_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	err := svc.CreateWard(ctx, &Ward{HospitalID: uuid.New(), Name: "X", Type: "spa"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad ward type, got %v", err)
	}

	missing := uuid.New()
	err = svc.CreateWard(ctx, &Ward{HospitalID: uuid.New(), FloorID: &missing, Name: "X", Type: "general"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown floor, got %v", err)
	}

	policy := "coed"
	err = svc.CreateWard(ctx, &Ward{HospitalID: uuid.New(), Name: "X", Type: "general", GenderPolicy: &policy})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad gender policy, got %v", err)
	}
}

func TestUpdateFloor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	floor, _, _, _ := seedHierarchy(t, svc)

	ground := 0
	name := "Ground Floor"
	got, err := svc.UpdateFloor(ctx, floor.ID, &ground, &name, nil)
	if err != nil {
		t.Fatalf("update floor: %v", err)
	}
	if got.FloorNumber != 0 {
		t.Errorf("expected floor number 0 to be applied, got %d", got.FloorNumber)
	}
	if got.Name == nil || *got.Name != "Ground Floor" {
		t.Errorf("unexpected name: %v", got.Name)
	}

	// A sparse patch leaves the other fields alone.
	desc := "street level"
	got, err = svc.UpdateFloor(ctx, floor.ID, nil, nil, &desc)
	if err != nil {
		t.Fatalf("update floor: %v", err)
	}
	if got.FloorNumber != 0 || got.Name == nil || *got.Name != "Ground Floor" {
		t.Errorf("expected untouched fields to survive, got %+v", got)
	}

	if _, err := svc.UpdateFloor(ctx, uuid.New(), &ground, nil, nil); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found for unknown floor, got %v", err)
	}
}

func TestUpdateWard(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, ward, _, _ := seedHierarchy(t, svc)

	policy := "female"
	got, err := svc.UpdateWard(ctx, ward.ID, &Ward{Name: "Maternity A", Type: "maternity", GenderPolicy: &policy})
	if err != nil {
		t.Fatalf("update ward: %v", err)
	}
	if got.Name != "Maternity A" || got.Type != "maternity" {
		t.Errorf("unexpected ward after update: %+v", got)
	}
	if got.GenderPolicy == nil || *got.GenderPolicy != "female" {
		t.Errorf("unexpected gender policy: %v", got.GenderPolicy)
	}

	if _, err := svc.UpdateWard(ctx, ward.ID, &Ward{Type: "spa"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad ward type, got %v", err)
	}

	missing := uuid.New()
	if _, err := svc.UpdateWard(ctx, ward.ID, &Ward{FloorID: &missing}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error moving ward to unknown floor, got %v", err)
	}
}

func TestCreateRoom_InactiveWard(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, ward, _, _ := seedHierarchy(t, svc)

	// Deactivate ward directly, then creation under it must fail.
	svcRepo := svc.repo.(*mockRepo)
	svcRepo.wards[ward.ID].Active = false

	err := svc.CreateRoom(ctx, &Room{WardID: ward.ID, RoomNumber: "102", Category: "general"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for inactive ward, got %v", err)
	}
}

func TestCreateBed_DefaultsAvailable(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, _, bed := seedHierarchy(t, svc)
	if bed.Status != BedAvailable {
		t.Errorf("expected new bed to be available, got %s", bed.Status)
	}
}

func TestDeleteFloor_GuardedByActiveWards(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	floor, ward, room, bed := seedHierarchy(t, svc)

	err := svc.DeleteFloor(ctx, floor.ID)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict while wards present, got %v", err)
	}

	// Tear down bottom-up, then the floor delete goes through.
	if err := svc.DeleteBed(ctx, bed.ID); err != nil {
		t.Fatalf("delete bed: %v", err)
	}
	if err := svc.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if err := svc.DeleteWard(ctx, ward.ID); err != nil {
		t.Fatalf("delete ward: %v", err)
	}
	if err := svc.DeleteFloor(ctx, floor.ID); err != nil {
		t.Fatalf("delete floor: %v", err)
	}

	got, err := svc.ListFloors(ctx, floor.HospitalID)
	if err != nil {
		t.Fatalf("list floors: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected deactivated floor to drop from listing, got %d", len(got))
	}
}

func TestDeleteWard_GuardedByOpenAllocations(t *testing.T) {
	svc, repo, occ := newTestService()
	ctx := context.Background()
	_, ward, room, bed := seedHierarchy(t, svc)

	// Empty the rooms first so the room guard doesn't fire.
	repo.beds = map[uuid.UUID]*Bed{bed.ID: repo.beds[bed.ID]}
	delete(repo.rooms, room.ID)
	occ.openByWard[ward.ID] = 1

	err := svc.DeleteWard(ctx, ward.ID)
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict for ward with admitted patients, got %v", err)
	}
}

func TestDeleteBed_Guards(t *testing.T) {
	svc, repo, occ := newTestService()
	ctx := context.Background()
	_, _, _, bed := seedHierarchy(t, svc)

	repo.beds[bed.ID].Status = BedOccupied
	if err := svc.DeleteBed(ctx, bed.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for occupied bed, got %v", err)
	}

	repo.beds[bed.ID].Status = BedCleaning
	occ.openByBed[bed.ID] = 1
	if err := svc.DeleteBed(ctx, bed.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict for bed with open allocation, got %v", err)
	}

	occ.openByBed[bed.ID] = 0
	if err := svc.DeleteBed(ctx, bed.ID); err != nil {
		t.Errorf("expected delete to succeed, got %v", err)
	}
	if _, ok := repo.beds[bed.ID]; ok {
		t.Error("expected bed to be hard-deleted")
	}
}

func TestUpdateBedStatus_RefusesOccupied(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_, _, _, bed := seedHierarchy(t, svc)

	if _, err := svc.UpdateBedStatus(ctx, bed.ID, BedOccupied); !apperr.IsValidation(err) {
		t.Errorf("expected validation error setting occupied manually, got %v", err)
	}

	repo.beds[bed.ID].Status = BedOccupied
	if _, err := svc.UpdateBedStatus(ctx, bed.ID, BedCleaning); !apperr.IsConflict(err) {
		t.Errorf("expected conflict clearing occupied manually, got %v", err)
	}
}

func TestMarkBedCleaned(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_, _, _, bed := seedHierarchy(t, svc)

	reason := "deep clean"
	repo.beds[bed.ID].Status = BedCleaning
	repo.beds[bed.ID].BlockedReason = &reason

	got, err := svc.MarkBedCleaned(ctx, bed.ID)
	if err != nil {
		t.Fatalf("mark cleaned: %v", err)
	}
	if got.Status != BedAvailable {
		t.Errorf("expected available, got %s", got.Status)
	}
	if got.LastCleanedAt == nil {
		t.Error("expected last_cleaned_at to be stamped")
	}
	if got.BlockedReason != nil || got.BlockedUntil != nil {
		t.Error("expected block fields to be cleared")
	}

	repo.beds[bed.ID].Status = BedOccupied
	if _, err := svc.MarkBedCleaned(ctx, bed.ID); !apperr.IsConflict(err) {
		t.Errorf("expected conflict cleaning an occupied bed, got %v", err)
	}
}

func TestBlockBed(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_, _, _, bed := seedHierarchy(t, svc)

	if _, err := svc.BlockBed(ctx, bed.ID, "", nil); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty reason, got %v", err)
	}

	got, err := svc.BlockBed(ctx, bed.ID, "fumigation", nil)
	if err != nil {
		t.Fatalf("block bed: %v", err)
	}
	if got.Status != BedBlocked || got.BlockedReason == nil || *got.BlockedReason != "fumigation" {
		t.Errorf("unexpected bed after block: %+v", got)
	}

	repo.beds[bed.ID].Status = BedOccupied
	if _, err := svc.BlockBed(ctx, bed.ID, "repair", nil); !apperr.IsConflict(err) {
		t.Errorf("expected conflict blocking an occupied bed, got %v", err)
	}
}

func TestGetBed_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GetBed(context.Background(), uuid.New())
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}
