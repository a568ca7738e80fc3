// Package ledger keeps the append-only record of which encounter held which
// bed and when. Rows are inserted on admission and transfer and closed by
// stamping to_at; nothing else is ever updated and nothing is deleted, so the
// table doubles as the audit trail for bed occupancy.
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// BedAllocation is one stay of one encounter in one bed. ToAt is nil while
// the stay is ongoing; at most one open row may exist per bed and per
// encounter, enforced by partial unique indexes.
type BedAllocation struct {
	ID          uuid.UUID  `json:"id"`
	EncounterID uuid.UUID  `json:"encounter_id"`
	BedID       uuid.UUID  `json:"bed_id"`
	FromAt      time.Time  `json:"from_at"`
	ToAt        *time.Time `json:"to_at,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	PerformedBy *string    `json:"performed_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Reasons written by the lifecycle manager.
const (
	ReasonInitialAdmission = "Initial admission"
	ReasonTransfer         = "Transfer"
)
