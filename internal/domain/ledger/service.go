package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/ipd/internal/platform/apperr"
)

// Service exposes the read side of the ledger. Writes happen through the
// Repository directly, always from the lifecycle manager's transaction.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) HistoryByEncounter(ctx context.Context, encounterID uuid.UUID, limit, offset int) ([]*BedAllocation, int, error) {
	allocs, total, err := s.repo.HistoryByEncounter(ctx, encounterID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return allocs, total, nil
}

func (s *Service) HistoryByBed(ctx context.Context, bedID uuid.UUID, limit, offset int) ([]*BedAllocation, int, error) {
	allocs, total, err := s.repo.HistoryByBed(ctx, bedID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return allocs, total, nil
}

// CurrentByBed returns the open allocation on a bed, or NotFound when the bed
// is empty.
func (s *Service) CurrentByBed(ctx context.Context, bedID uuid.UUID) (*BedAllocation, error) {
	a, err := s.repo.OpenByBed(ctx, bedID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if a == nil {
		return nil, apperr.NotFound("open allocation for bed", bedID.String())
	}
	return a, nil
}
