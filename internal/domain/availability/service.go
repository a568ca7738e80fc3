package availability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/ipd/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewService builds the query service. cache may be nil; every snapshot then
// hits the database, which is fine for small deployments.
func NewService(repo Repository, cache Cache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func (s *Service) AvailableBeds(ctx context.Context, f Filter) ([]*AvailableBed, error) {
	if f.HospitalID == uuid.Nil {
		return nil, apperr.Validation("hospital_id is required")
	}
	beds, err := s.repo.AvailableBeds(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return beds, nil
}

// Snapshot returns the hierarchy with live status, served from cache inside
// the TTL window. Staleness up to the TTL is part of the design: dashboards
// poll on the same cadence. Cache failures degrade to a direct read.
func (s *Service) Snapshot(ctx context.Context, hospitalID uuid.UUID) (*Snapshot, error) {
	if hospitalID == uuid.Nil {
		return nil, apperr.Validation("hospital_id is required")
	}

	key := "ipd:structure:" + hospitalID.String()
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Msg("snapshot cache read failed")
		} else if ok {
			var snap Snapshot
			if uerr := json.Unmarshal(raw, &snap); uerr != nil {
				s.logger.Warn().Err(uerr).Msg("discarding undecodable cached snapshot")
			} else {
				return &snap, nil
			}
		}
	}

	snap, err := s.repo.Structure(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
				s.logger.Warn().Err(err).Msg("snapshot cache write failed")
			}
		}
	}
	return snap, nil
}
