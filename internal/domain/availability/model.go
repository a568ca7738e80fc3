// Package availability answers the two questions ward clerks poll for: which
// beds can take a patient right now, and what does the whole house look like.
// Reads only; all state changes happen elsewhere.
package availability

import (
	"github.com/google/uuid"

	"github.com/hms/ipd/internal/domain/catalog"
)

// Filter narrows the available-bed listing. HospitalID is required; the rest
// narrow successively and nil fields are skipped.
type Filter struct {
	HospitalID   uuid.UUID
	FloorID      *uuid.UUID
	WardID       *uuid.UUID
	RoomID       *uuid.UUID
	ExcludeBedID *uuid.UUID
}

// AvailableBed is a bed plus enough location context to pick one from a list.
type AvailableBed struct {
	Bed          catalog.Bed `json:"bed"`
	RoomID       uuid.UUID   `json:"room_id"`
	RoomNumber   string      `json:"room_number"`
	RoomCategory string      `json:"room_category"`
	WardID       uuid.UUID   `json:"ward_id"`
	WardName     string      `json:"ward_name"`
	WardType     string      `json:"ward_type"`
	GenderPolicy *string     `json:"gender_policy,omitempty"`
	FloorID      *uuid.UUID  `json:"floor_id,omitempty"`
	FloorNumber  *int        `json:"floor_number,omitempty"`
}

// BedOccupancy is a bed with its live occupant, if any.
type BedOccupancy struct {
	catalog.Bed
	CurrentEncounterID *uuid.UUID `json:"current_encounter_id,omitempty"`
	CurrentPatientID   *uuid.UUID `json:"current_patient_id,omitempty"`
}

// Snapshot is the full hierarchy with live bed status, shaped for a single
// poll from the ward dashboard.
type Snapshot struct {
	Floors []*catalog.Floor `json:"floors"`
	Wards  []*catalog.Ward  `json:"wards"`
	Rooms  []*catalog.Room  `json:"rooms"`
	Beds   []*BedOccupancy  `json:"beds"`
}
