// Package catalog owns the physical bed hierarchy: floors contain wards,
// wards contain rooms, rooms contain beds. Occupancy itself lives in the
// allocation ledger; the catalog only records each bed's operational status.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

type BedStatus string

const (
	BedAvailable   BedStatus = "available"
	BedOccupied    BedStatus = "occupied"
	BedCleaning    BedStatus = "cleaning"
	BedBlocked     BedStatus = "blocked"
	BedMaintenance BedStatus = "maintenance"
)

var validBedStatuses = map[BedStatus]bool{
	BedAvailable:   true,
	BedOccupied:    true,
	BedCleaning:    true,
	BedBlocked:     true,
	BedMaintenance: true,
}

func (s BedStatus) Valid() bool { return validBedStatuses[s] }

// Ward types mirror the admission workflows the hospital runs.
var validWardTypes = map[string]bool{
	"general":   true,
	"icu":       true,
	"er":        true,
	"pediatric": true,
	"maternity": true,
	"surgical":  true,
	"isolation": true,
}

// Gender policy is informational. Allocation never enforces it; the
// availability snapshot reports it so ward clerks can apply it by hand.
var validGenderPolicies = map[string]bool{
	"male":   true,
	"female": true,
	"mixed":  true,
}

var validRoomCategories = map[string]bool{
	"general": true,
	"semi":    true,
	"private": true,
	"deluxe":  true,
	"vip":     true,
	"icu":     true,
}

type Floor struct {
	ID          uuid.UUID `json:"id"`
	HospitalID  uuid.UUID `json:"hospital_id"`
	FloorNumber int       `json:"floor_number"`
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Ward struct {
	ID           uuid.UUID  `json:"id"`
	HospitalID   uuid.UUID  `json:"hospital_id"`
	FloorID      *uuid.UUID `json:"floor_id,omitempty"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	GenderPolicy *string    `json:"gender_policy,omitempty"`
	Capacity     *int       `json:"capacity,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Room struct {
	ID         uuid.UUID `json:"id"`
	WardID     uuid.UUID `json:"ward_id"`
	RoomNumber string    `json:"room_number"`
	RoomName   *string   `json:"room_name,omitempty"`
	Category   string    `json:"category"`
	Capacity   *int      `json:"capacity,omitempty"`
	Amenities  []string  `json:"amenities,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

type Bed struct {
	ID            uuid.UUID  `json:"id"`
	RoomID        uuid.UUID  `json:"room_id"`
	BedNumber     string     `json:"bed_number"`
	BedName       *string    `json:"bed_name,omitempty"`
	Status        BedStatus  `json:"status"`
	BedType       *string    `json:"bed_type,omitempty"`
	Equipment     []string   `json:"equipment,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	LastCleanedAt *time.Time `json:"last_cleaned_at,omitempty"`
	BlockedReason *string    `json:"blocked_reason,omitempty"`
	BlockedUntil  *time.Time `json:"blocked_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
