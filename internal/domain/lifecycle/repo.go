package lifecycle

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows encounter listings. Nil fields are not applied.
type ListFilter struct {
	HospitalID *uuid.UUID
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	Status     *EncounterStatus
}

type Repository interface {
	Create(ctx context.Context, e *Encounter) error
	Get(ctx context.Context, id uuid.UUID) (*Encounter, error)
	Update(ctx context.Context, e *Encounter) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Encounter, int, error)
}
