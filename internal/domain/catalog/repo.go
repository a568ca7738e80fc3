package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for the bed hierarchy. ClaimBed and
// ReleaseBed are the only two mutations other packages perform, both from
// inside a surrounding transaction.
type Repository interface {
	CreateFloor(ctx context.Context, f *Floor) error
	GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error)
	ListFloors(ctx context.Context, hospitalID uuid.UUID) ([]*Floor, error)
	UpdateFloor(ctx context.Context, f *Floor) error
	DeactivateFloor(ctx context.Context, id uuid.UUID) error
	CountActiveWardsByFloor(ctx context.Context, floorID uuid.UUID) (int, error)

	CreateWard(ctx context.Context, w *Ward) error
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	ListWards(ctx context.Context, hospitalID uuid.UUID, floorID *uuid.UUID) ([]*Ward, error)
	UpdateWard(ctx context.Context, w *Ward) error
	DeactivateWard(ctx context.Context, id uuid.UUID) error
	CountActiveRoomsByWard(ctx context.Context, wardID uuid.UUID) (int, error)

	CreateRoom(ctx context.Context, r *Room) error
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	ListRooms(ctx context.Context, wardID uuid.UUID) ([]*Room, error)
	UpdateRoom(ctx context.Context, r *Room) error
	DeactivateRoom(ctx context.Context, id uuid.UUID) error
	CountBedsByRoom(ctx context.Context, roomID uuid.UUID) (int, error)

	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	ListBeds(ctx context.Context, roomID uuid.UUID) ([]*Bed, error)
	UpdateBed(ctx context.Context, b *Bed) error
	UpdateBedStatus(ctx context.Context, b *Bed) error
	DeleteBed(ctx context.Context, id uuid.UUID) error

	// ClaimBed flips an available bed to occupied. It reports whether this
	// caller won the claim; false means another writer got there first or
	// the bed was never claimable.
	ClaimBed(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseBed moves an occupied bed to cleaning after its patient leaves.
	ReleaseBed(ctx context.Context, id uuid.UUID) error
}
