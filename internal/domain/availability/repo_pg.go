package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/domain/catalog"
)

// Repository is the read-only query surface. No transaction plumbing: these
// queries tolerate the slight staleness the polling design already accepts.
type Repository interface {
	AvailableBeds(ctx context.Context, f Filter) ([]*AvailableBed, error)
	Structure(ctx context.Context, hospitalID uuid.UUID) (*Snapshot, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) AvailableBeds(ctx context.Context, f Filter) ([]*AvailableBed, error) {
	q := `
		SELECT b.id, b.room_id, b.bed_number, b.bed_name, b.status, b.bed_type, b.equipment, b.notes,
			b.last_cleaned_at, b.blocked_reason, b.blocked_until, b.created_at, b.updated_at,
			rm.id, rm.room_number, rm.category,
			w.id, w.name, w.type, w.gender_policy,
			f.id, f.floor_number
		FROM beds b
		JOIN rooms rm ON rm.id = b.room_id
		JOIN wards w ON w.id = rm.ward_id
		LEFT JOIN floors f ON f.id = w.floor_id
		WHERE w.hospital_id = $1 AND b.status = 'available' AND rm.active AND w.active`
	args := []interface{}{f.HospitalID}
	n := 1
	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if f.FloorID != nil {
		q += ` AND w.floor_id = ` + arg(*f.FloorID)
	}
	if f.WardID != nil {
		q += ` AND w.id = ` + arg(*f.WardID)
	}
	if f.RoomID != nil {
		q += ` AND rm.id = ` + arg(*f.RoomID)
	}
	if f.ExcludeBedID != nil {
		q += ` AND b.id <> ` + arg(*f.ExcludeBedID)
	}
	q += ` ORDER BY f.floor_number, w.name, rm.room_number, b.bed_number`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*AvailableBed
	for rows.Next() {
		var ab AvailableBed
		if err := rows.Scan(
			&ab.Bed.ID, &ab.Bed.RoomID, &ab.Bed.BedNumber, &ab.Bed.BedName, &ab.Bed.Status,
			&ab.Bed.BedType, &ab.Bed.Equipment, &ab.Bed.Notes,
			&ab.Bed.LastCleanedAt, &ab.Bed.BlockedReason, &ab.Bed.BlockedUntil,
			&ab.Bed.CreatedAt, &ab.Bed.UpdatedAt,
			&ab.RoomID, &ab.RoomNumber, &ab.RoomCategory,
			&ab.WardID, &ab.WardName, &ab.WardType, &ab.GenderPolicy,
			&ab.FloorID, &ab.FloorNumber,
		); err != nil {
			return nil, err
		}
		beds = append(beds, &ab)
	}
	return beds, rows.Err()
}

func (r *repoPG) Structure(ctx context.Context, hospitalID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{}

	floorRows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, floor_number, name, description, active, created_at
		FROM floors WHERE hospital_id = $1 AND active ORDER BY floor_number`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer floorRows.Close()
	for floorRows.Next() {
		var f catalog.Floor
		if err := floorRows.Scan(&f.ID, &f.HospitalID, &f.FloorNumber, &f.Name, &f.Description, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		snap.Floors = append(snap.Floors, &f)
	}
	if err := floorRows.Err(); err != nil {
		return nil, err
	}

	wardRows, err := r.pool.Query(ctx, `
		SELECT id, hospital_id, floor_id, name, type, gender_policy, capacity, description, active, created_at
		FROM wards WHERE hospital_id = $1 AND active ORDER BY name`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer wardRows.Close()
	for wardRows.Next() {
		var w catalog.Ward
		if err := wardRows.Scan(&w.ID, &w.HospitalID, &w.FloorID, &w.Name, &w.Type, &w.GenderPolicy, &w.Capacity, &w.Description, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		snap.Wards = append(snap.Wards, &w)
	}
	if err := wardRows.Err(); err != nil {
		return nil, err
	}

	roomRows, err := r.pool.Query(ctx, `
		SELECT rm.id, rm.ward_id, rm.room_number, rm.room_name, rm.category, rm.capacity, rm.amenities, rm.active, rm.created_at
		FROM rooms rm
		JOIN wards w ON w.id = rm.ward_id
		WHERE w.hospital_id = $1 AND rm.active AND w.active
		ORDER BY rm.room_number`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer roomRows.Close()
	for roomRows.Next() {
		var rm catalog.Room
		if err := roomRows.Scan(&rm.ID, &rm.WardID, &rm.RoomNumber, &rm.RoomName, &rm.Category, &rm.Capacity, &rm.Amenities, &rm.Active, &rm.CreatedAt); err != nil {
			return nil, err
		}
		snap.Rooms = append(snap.Rooms, &rm)
	}
	if err := roomRows.Err(); err != nil {
		return nil, err
	}

	// Occupied beds carry their live encounter and patient from the open
	// allocation; the join keeps ledger truth and bed status in one row.
	bedRows, err := r.pool.Query(ctx, `
		SELECT b.id, b.room_id, b.bed_number, b.bed_name, b.status, b.bed_type, b.equipment, b.notes,
			b.last_cleaned_at, b.blocked_reason, b.blocked_until, b.created_at, b.updated_at,
			e.id, e.patient_id
		FROM beds b
		JOIN rooms rm ON rm.id = b.room_id
		JOIN wards w ON w.id = rm.ward_id
		LEFT JOIN bed_allocations a ON a.bed_id = b.id AND a.to_at IS NULL
		LEFT JOIN ipd_encounters e ON e.id = a.encounter_id
		WHERE w.hospital_id = $1 AND rm.active AND w.active
		ORDER BY rm.room_number, b.bed_number`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer bedRows.Close()
	for bedRows.Next() {
		var b BedOccupancy
		if err := bedRows.Scan(
			&b.ID, &b.RoomID, &b.BedNumber, &b.BedName, &b.Status, &b.BedType, &b.Equipment, &b.Notes,
			&b.LastCleanedAt, &b.BlockedReason, &b.BlockedUntil, &b.CreatedAt, &b.UpdatedAt,
			&b.CurrentEncounterID, &b.CurrentPatientID,
		); err != nil {
			return nil, err
		}
		snap.Beds = append(snap.Beds, &b)
	}
	return snap, bedRows.Err()
}
