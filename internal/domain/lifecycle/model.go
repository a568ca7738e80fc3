// Package lifecycle drives the inpatient encounter state machine: admission,
// bed and doctor transfers, and discharge. Every mutation that touches a bed
// runs inside one transaction so the bed status, the encounter row, and the
// allocation ledger can never disagree.
package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

type EncounterStatus string

const (
	StatusAdmitted    EncounterStatus = "admitted"
	StatusTransferred EncounterStatus = "transferred"
	StatusDischarged  EncounterStatus = "discharged"
	StatusLAMA        EncounterStatus = "lama"
	StatusAbsconded   EncounterStatus = "absconded"
	StatusDeath       EncounterStatus = "death"
)

// Terminal statuses close the encounter; no further transition is allowed.
var terminalStatuses = map[EncounterStatus]bool{
	StatusDischarged: true,
	StatusLAMA:       true,
	StatusAbsconded:  true,
	StatusDeath:      true,
}

func (s EncounterStatus) Terminal() bool { return terminalStatuses[s] }

type AdmissionType string

const (
	AdmissionElective    AdmissionType = "elective"
	AdmissionEmergency   AdmissionType = "emergency"
	AdmissionDayCare     AdmissionType = "day_care"
	AdmissionObservation AdmissionType = "observation"
)

var validAdmissionTypes = map[AdmissionType]bool{
	AdmissionElective:    true,
	AdmissionEmergency:   true,
	AdmissionDayCare:     true,
	AdmissionObservation: true,
}

func (t AdmissionType) Valid() bool { return validAdmissionTypes[t] }

// Encounter is one inpatient stay. CurrentBedID is derived from the open
// allocation at read time, never stored.
type Encounter struct {
	ID                uuid.UUID       `json:"id"`
	HospitalID        uuid.UUID       `json:"hospital_id"`
	PatientID         uuid.UUID       `json:"patient_id"`
	AdmittingDoctorID *uuid.UUID      `json:"admitting_doctor_id,omitempty"`
	AttendingDoctorID *uuid.UUID      `json:"attending_doctor_id,omitempty"`
	AdmissionType     AdmissionType   `json:"admission_type"`
	Status            EncounterStatus `json:"status"`
	AdmittedAt        time.Time       `json:"admitted_at"`
	DischargedAt      *time.Time      `json:"discharged_at,omitempty"`
	DischargeSummary  *string         `json:"discharge_summary,omitempty"`
	CurrentBedID      *uuid.UUID      `json:"current_bed_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
