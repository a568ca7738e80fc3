package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the allocation store. Open and Close run inside the lifecycle
// manager's transaction; everything else is read-only.
type Repository interface {
	Open(ctx context.Context, a *BedAllocation) error
	Close(ctx context.Context, id uuid.UUID, at time.Time) error

	OpenByBed(ctx context.Context, bedID uuid.UUID) (*BedAllocation, error)
	OpenByEncounter(ctx context.Context, encounterID uuid.UUID) (*BedAllocation, error)

	HistoryByEncounter(ctx context.Context, encounterID uuid.UUID, limit, offset int) ([]*BedAllocation, int, error)
	HistoryByBed(ctx context.Context, bedID uuid.UUID, limit, offset int) ([]*BedAllocation, int, error)

	OpenAllocationsForBed(ctx context.Context, bedID uuid.UUID) (int, error)
	OpenAllocationsForRoom(ctx context.Context, roomID uuid.UUID) (int, error)
	OpenAllocationsForWard(ctx context.Context, wardID uuid.UUID) (int, error)
	OpenAllocationsForFloor(ctx context.Context, floorID uuid.UUID) (int, error)
}
