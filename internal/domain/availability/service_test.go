package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/ipd/internal/domain/catalog"
	"github.com/hms/ipd/internal/platform/apperr"
)

// -- Mocks --

type mockRepo struct {
	beds          []*AvailableBed
	snap          *Snapshot
	structureHits int
}

func (m *mockRepo) AvailableBeds(_ context.Context, f Filter) ([]*AvailableBed, error) {
	var out []*AvailableBed
	for _, b := range m.beds {
		if f.WardID != nil && b.WardID != *f.WardID {
			continue
		}
		if f.RoomID != nil && b.RoomID != *f.RoomID {
			continue
		}
		if f.ExcludeBedID != nil && b.Bed.ID == *f.ExcludeBedID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockRepo) Structure(_ context.Context, _ uuid.UUID) (*Snapshot, error) {
	m.structureHits++
	return m.snap, nil
}

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

// -- Tests --

func availableBed(ward, room uuid.UUID, number string) *AvailableBed {
	return &AvailableBed{
		Bed:        catalog.Bed{ID: uuid.New(), RoomID: room, BedNumber: number, Status: catalog.BedAvailable},
		RoomID:     room,
		RoomNumber: "101",
		WardID:     ward,
		WardName:   "General Ward A",
		WardType:   "general",
	}
}

func TestAvailableBeds_Filters(t *testing.T) {
	wardA, wardB := uuid.New(), uuid.New()
	roomA, roomB := uuid.New(), uuid.New()
	repo := &mockRepo{beds: []*AvailableBed{
		availableBed(wardA, roomA, "101-A"),
		availableBed(wardA, roomA, "101-B"),
		availableBed(wardB, roomB, "201-A"),
	}}
	svc := NewService(repo, nil, 0, zerolog.Nop())
	ctx := context.Background()
	hospital := uuid.New()

	all, err := svc.AvailableBeds(ctx, Filter{HospitalID: hospital})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 beds, got %d", len(all))
	}

	byWard, err := svc.AvailableBeds(ctx, Filter{HospitalID: hospital, WardID: &wardA})
	if err != nil {
		t.Fatalf("list by ward: %v", err)
	}
	if len(byWard) != 2 {
		t.Errorf("expected 2 beds in ward A, got %d", len(byWard))
	}

	exclude := repo.beds[0].Bed.ID
	rest, err := svc.AvailableBeds(ctx, Filter{HospitalID: hospital, ExcludeBedID: &exclude})
	if err != nil {
		t.Fatalf("list with exclude: %v", err)
	}
	if len(rest) != 2 {
		t.Errorf("expected exclusion to drop one bed, got %d", len(rest))
	}

	_, err = svc.AvailableBeds(ctx, Filter{})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error without hospital, got %v", err)
	}
}

func TestSnapshot_CachesWithinTTL(t *testing.T) {
	encID, patientID := uuid.New(), uuid.New()
	repo := &mockRepo{snap: &Snapshot{
		Floors: []*catalog.Floor{{ID: uuid.New(), FloorNumber: 1, Active: true}},
		Beds: []*BedOccupancy{{
			Bed:                catalog.Bed{ID: uuid.New(), Status: catalog.BedOccupied},
			CurrentEncounterID: &encID,
			CurrentPatientID:   &patientID,
		}},
	}}
	cache := newMemoryCache()
	svc := NewService(repo, cache, 5*time.Second, zerolog.Nop())
	ctx := context.Background()
	hospital := uuid.New()

	first, err := svc.Snapshot(ctx, hospital)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if repo.structureHits != 1 {
		t.Fatalf("expected one database read, got %d", repo.structureHits)
	}
	if len(first.Beds) != 1 || first.Beds[0].CurrentEncounterID == nil {
		t.Fatal("expected occupant on the occupied bed")
	}

	second, err := svc.Snapshot(ctx, hospital)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if repo.structureHits != 1 {
		t.Errorf("expected cache hit, database reads = %d", repo.structureHits)
	}
	if *second.Beds[0].CurrentPatientID != patientID {
		t.Error("cached snapshot lost the occupant")
	}
}

func TestSnapshot_NilCacheReadsThrough(t *testing.T) {
	repo := &mockRepo{snap: &Snapshot{}}
	svc := NewService(repo, nil, 5*time.Second, zerolog.Nop())
	ctx := context.Background()
	hospital := uuid.New()

	for i := 0; i < 2; i++ {
		if _, err := svc.Snapshot(ctx, hospital); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
	}
	if repo.structureHits != 2 {
		t.Errorf("expected every call to hit the database, got %d", repo.structureHits)
	}
}
