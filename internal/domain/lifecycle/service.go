package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/ipd/internal/domain/catalog"
	"github.com/hms/ipd/internal/domain/ledger"
	"github.com/hms/ipd/internal/platform/apperr"
	"github.com/hms/ipd/internal/platform/db"
	"github.com/hms/ipd/internal/platform/directory"
	"github.com/hms/ipd/internal/platform/metrics"
)

// BedStore is the slice of the catalog repository the lifecycle needs. The
// compare-and-set in ClaimBed is the sole guard against double allocation.
type BedStore interface {
	GetBed(ctx context.Context, id uuid.UUID) (*catalog.Bed, error)
	ClaimBed(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseBed(ctx context.Context, id uuid.UUID) error
}

// AllocationStore is the write side of the ledger.
type AllocationStore interface {
	Open(ctx context.Context, a *ledger.BedAllocation) error
	Close(ctx context.Context, id uuid.UUID, at time.Time) error
	OpenByEncounter(ctx context.Context, encounterID uuid.UUID) (*ledger.BedAllocation, error)
}

// DirectoryLookup verifies patient and doctor references against the staff
// directory. Nil-safe: a disabled client returns nil, nil.
type DirectoryLookup interface {
	LookupPatient(ctx context.Context, id string) (*directory.Patient, error)
	LookupDoctor(ctx context.Context, id string) (*directory.Doctor, error)
}

type Service struct {
	repo    Repository
	beds    BedStore
	allocs  AllocationStore
	runner  db.Runner
	dir     DirectoryLookup
	metrics *metrics.Registry
	logger  zerolog.Logger
}

func NewService(repo Repository, beds BedStore, allocs AllocationStore, runner db.Runner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, beds: beds, allocs: allocs, runner: runner, logger: logger}
}

// SetDirectory attaches an optional directory client for reference checks.
func (s *Service) SetDirectory(dir DirectoryLookup) { s.dir = dir }

// SetMetrics attaches an optional metrics registry.
func (s *Service) SetMetrics(m *metrics.Registry) { s.metrics = m }

type AdmitRequest struct {
	HospitalID        uuid.UUID
	PatientID         uuid.UUID
	BedID             uuid.UUID
	AdmittingDoctorID *uuid.UUID
	AttendingDoctorID *uuid.UUID
	AdmissionType     AdmissionType
	PerformedBy       string
}

// Admit creates an encounter and claims its first bed. The claim, the
// encounter insert, and the opening ledger row commit together; losing the
// bed race rolls everything back with nothing persisted.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Encounter, error) {
	if req.HospitalID == uuid.Nil {
		return nil, apperr.Validation("hospital_id is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if req.BedID == uuid.Nil {
		return nil, apperr.Validation("bed_id is required")
	}
	if !req.AdmissionType.Valid() {
		return nil, apperr.Validation("invalid admission_type: %s", req.AdmissionType)
	}

	if err := s.checkDirectory(ctx, &req.PatientID, req.AttendingDoctorID); err != nil {
		return nil, err
	}

	enc := &Encounter{
		HospitalID:        req.HospitalID,
		PatientID:         req.PatientID,
		AdmittingDoctorID: req.AdmittingDoctorID,
		AttendingDoctorID: req.AttendingDoctorID,
		AdmissionType:     req.AdmissionType,
		Status:            StatusAdmitted,
		AdmittedAt:        time.Now().UTC(),
	}

	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		bed, err := s.beds.GetBed(ctx, req.BedID)
		if err != nil {
			return apperr.Internal(err)
		}
		if bed == nil {
			return apperr.NotFound("bed", req.BedID)
		}

		won, err := s.beds.ClaimBed(ctx, req.BedID)
		if err != nil {
			return apperr.Internal(err)
		}
		if !won {
			s.countConflict("admit")
			return apperr.Conflict("bed %s is not available", req.BedID)
		}

		if err := s.repo.Create(ctx, enc); err != nil {
			return apperr.Internal(err)
		}

		reason := ledger.ReasonInitialAdmission
		alloc := &ledger.BedAllocation{
			EncounterID: enc.ID,
			BedID:       req.BedID,
			FromAt:      enc.AdmittedAt,
			Reason:      &reason,
		}
		if req.PerformedBy != "" {
			alloc.PerformedBy = &req.PerformedBy
		}
		if err := s.allocs.Open(ctx, alloc); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	enc.CurrentBedID = &req.BedID
	if s.metrics != nil {
		s.metrics.Admissions.Inc()
	}
	s.logger.Info().
		Str("encounter_id", enc.ID.String()).
		Str("patient_id", req.PatientID.String()).
		Str("bed_id", req.BedID.String()).
		Str("admission_type", string(req.AdmissionType)).
		Msg("patient admitted")
	return enc, nil
}

// TransferBed moves an admitted patient to a new bed. The old bed goes to
// cleaning, the old allocation closes, and a new one opens, atomically.
func (s *Service) TransferBed(ctx context.Context, encounterID, newBedID uuid.UUID, reason, performedBy string) (*Encounter, error) {
	if newBedID == uuid.Nil {
		return nil, apperr.Validation("new_bed_id is required")
	}

	var enc *Encounter
	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		var err error
		enc, err = s.getOpen(ctx, encounterID)
		if err != nil {
			return err
		}

		cur, err := s.allocs.OpenByEncounter(ctx, encounterID)
		if err != nil {
			return apperr.Internal(err)
		}
		if cur == nil {
			return apperr.Conflict("encounter %s has no active bed allocation", encounterID)
		}
		if cur.BedID == newBedID {
			return apperr.Conflict("patient already occupies bed %s", newBedID)
		}

		newBed, err := s.beds.GetBed(ctx, newBedID)
		if err != nil {
			return apperr.Internal(err)
		}
		if newBed == nil {
			return apperr.NotFound("bed", newBedID)
		}

		won, err := s.beds.ClaimBed(ctx, newBedID)
		if err != nil {
			return apperr.Internal(err)
		}
		if !won {
			s.countConflict("transfer")
			return apperr.Conflict("bed %s is not available", newBedID)
		}

		now := time.Now().UTC()
		if err := s.allocs.Close(ctx, cur.ID, now); err != nil {
			return apperr.Internal(err)
		}
		if err := s.beds.ReleaseBed(ctx, cur.BedID); err != nil {
			return apperr.Internal(err)
		}

		allocReason := reason
		if allocReason == "" {
			allocReason = ledger.ReasonTransfer
		}
		alloc := &ledger.BedAllocation{
			EncounterID: encounterID,
			BedID:       newBedID,
			FromAt:      now,
			Reason:      &allocReason,
		}
		if performedBy != "" {
			alloc.PerformedBy = &performedBy
		}
		if err := s.allocs.Open(ctx, alloc); err != nil {
			return apperr.Internal(err)
		}

		enc.Status = StatusTransferred
		if err := s.repo.Update(ctx, enc); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	enc.CurrentBedID = &newBedID
	if s.metrics != nil {
		s.metrics.BedTransfers.Inc()
	}
	s.logger.Info().
		Str("encounter_id", encounterID.String()).
		Str("new_bed_id", newBedID.String()).
		Msg("patient transferred")
	return enc, nil
}

// TransferDoctor reassigns the attending doctor. No ledger row: the bed does
// not move.
func (s *Service) TransferDoctor(ctx context.Context, encounterID, newDoctorID uuid.UUID) (*Encounter, error) {
	if newDoctorID == uuid.Nil {
		return nil, apperr.Validation("new_doctor_id is required")
	}

	enc, err := s.getOpen(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if enc.AttendingDoctorID != nil && *enc.AttendingDoctorID == newDoctorID {
		return nil, apperr.Conflict("doctor %s is already attending", newDoctorID)
	}
	if s.dir != nil {
		doc, err := s.dir.LookupDoctor(ctx, newDoctorID.String())
		if err != nil {
			return nil, err
		}
		if doc != nil && !doc.Active {
			return nil, apperr.Validation("doctor %s is not active", newDoctorID)
		}
	}

	enc.AttendingDoctorID = &newDoctorID
	if err := s.repo.Update(ctx, enc); err != nil {
		return nil, apperr.Internal(err)
	}

	if s.metrics != nil {
		s.metrics.DoctorTransfers.Inc()
	}
	s.logger.Info().
		Str("encounter_id", encounterID.String()).
		Str("doctor_id", newDoctorID.String()).
		Msg("attending doctor changed")
	return enc, nil
}

// Discharge closes the encounter with one of the terminal statuses, frees the
// bed to cleaning, and closes the open allocation.
func (s *Service) Discharge(ctx context.Context, encounterID uuid.UUID, status EncounterStatus, summary string) (*Encounter, error) {
	if summary == "" {
		return nil, apperr.Validation("discharge_summary is required")
	}
	if status == "" {
		status = StatusDischarged
	}
	if !status.Terminal() {
		return nil, apperr.Validation("invalid discharge status: %s", status)
	}

	var enc *Encounter
	err := s.runner.WithTx(ctx, func(ctx context.Context) error {
		var err error
		enc, err = s.getOpen(ctx, encounterID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		cur, err := s.allocs.OpenByEncounter(ctx, encounterID)
		if err != nil {
			return apperr.Internal(err)
		}
		if cur != nil {
			if err := s.allocs.Close(ctx, cur.ID, now); err != nil {
				return apperr.Internal(err)
			}
			if err := s.beds.ReleaseBed(ctx, cur.BedID); err != nil {
				return apperr.Internal(err)
			}
		}

		enc.Status = status
		enc.DischargedAt = &now
		enc.DischargeSummary = &summary
		if err := s.repo.Update(ctx, enc); err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	enc.CurrentBedID = nil
	if s.metrics != nil {
		s.metrics.Discharges.WithLabelValues(string(status)).Inc()
	}
	s.logger.Info().
		Str("encounter_id", encounterID.String()).
		Str("status", string(status)).
		Msg("patient discharged")
	return enc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	enc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if enc == nil {
		return nil, apperr.NotFound("encounter", id.String())
	}
	return enc, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Encounter, int, error) {
	encs, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return encs, total, nil
}

// getOpen fetches an encounter and rejects terminal ones.
func (s *Service) getOpen(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	enc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enc.Status.Terminal() {
		return nil, apperr.Conflict("encounter %s is closed (%s)", id, enc.Status)
	}
	return enc, nil
}

func (s *Service) checkDirectory(ctx context.Context, patientID *uuid.UUID, doctorID *uuid.UUID) error {
	if s.dir == nil {
		return nil
	}
	if patientID != nil {
		p, err := s.dir.LookupPatient(ctx, patientID.String())
		if err != nil {
			return err
		}
		if p != nil && !p.Active {
			return apperr.Validation("patient %s is not active", patientID)
		}
	}
	if doctorID != nil {
		d, err := s.dir.LookupDoctor(ctx, doctorID.String())
		if err != nil {
			return err
		}
		if d != nil && !d.Active {
			return apperr.Validation("doctor %s is not active", doctorID)
		}
	}
	return nil
}

func (s *Service) countConflict(op string) {
	if s.metrics != nil {
		s.metrics.Conflicts.WithLabelValues(op).Inc()
	}
}
