package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/ipd/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// -- Floors --

const floorCols = `id, hospital_id, floor_number, name, description, active, created_at`

func (r *repoPG) CreateFloor(ctx context.Context, f *Floor) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO floors (id, hospital_id, floor_number, name, description, active)
		VALUES ($1,$2,$3,$4,$5,true)`,
		f.ID, f.HospitalID, f.FloorNumber, f.Name, f.Description,
	)
	return err
}

func (r *repoPG) GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error) {
	var f Floor
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+floorCols+` FROM floors WHERE id = $1`, id).
		Scan(&f.ID, &f.HospitalID, &f.FloorNumber, &f.Name, &f.Description, &f.Active, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) ListFloors(ctx context.Context, hospitalID uuid.UUID) ([]*Floor, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+floorCols+` FROM floors WHERE hospital_id = $1 AND active ORDER BY floor_number`,
		hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var floors []*Floor
	for rows.Next() {
		var f Floor
		if err := rows.Scan(&f.ID, &f.HospitalID, &f.FloorNumber, &f.Name, &f.Description, &f.Active, &f.CreatedAt); err != nil {
			return nil, err
		}
		floors = append(floors, &f)
	}
	return floors, rows.Err()
}

func (r *repoPG) UpdateFloor(ctx context.Context, f *Floor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE floors SET floor_number=$2, name=$3, description=$4
		WHERE id = $1`,
		f.ID, f.FloorNumber, f.Name, f.Description,
	)
	return err
}

func (r *repoPG) DeactivateFloor(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE floors SET active = false WHERE id = $1`, id)
	return err
}

func (r *repoPG) CountActiveWardsByFloor(ctx context.Context, floorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM wards WHERE floor_id = $1 AND active`, floorID).Scan(&n)
	return n, err
}

// -- Wards --

const wardCols = `id, hospital_id, floor_id, name, type, gender_policy, capacity, description, active, created_at`

func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO wards (id, hospital_id, floor_id, name, type, gender_policy, capacity, description, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,true)`,
		w.ID, w.HospitalID, w.FloorID, w.Name, w.Type, w.GenderPolicy, w.Capacity, w.Description,
	)
	return err
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	var w Ward
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM wards WHERE id = $1`, id).
		Scan(&w.ID, &w.HospitalID, &w.FloorID, &w.Name, &w.Type, &w.GenderPolicy, &w.Capacity, &w.Description, &w.Active, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repoPG) ListWards(ctx context.Context, hospitalID uuid.UUID, floorID *uuid.UUID) ([]*Ward, error) {
	q := `SELECT ` + wardCols + ` FROM wards WHERE hospital_id = $1 AND active`
	args := []interface{}{hospitalID}
	if floorID != nil {
		q += ` AND floor_id = $2`
		args = append(args, *floorID)
	}
	q += ` ORDER BY name`

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wards []*Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.HospitalID, &w.FloorID, &w.Name, &w.Type, &w.GenderPolicy, &w.Capacity, &w.Description, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		wards = append(wards, &w)
	}
	return wards, rows.Err()
}

func (r *repoPG) UpdateWard(ctx context.Context, w *Ward) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE wards SET floor_id=$2, name=$3, type=$4, gender_policy=$5, capacity=$6, description=$7
		WHERE id = $1`,
		w.ID, w.FloorID, w.Name, w.Type, w.GenderPolicy, w.Capacity, w.Description,
	)
	return err
}

func (r *repoPG) DeactivateWard(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE wards SET active = false WHERE id = $1`, id)
	return err
}

func (r *repoPG) CountActiveRoomsByWard(ctx context.Context, wardID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM rooms WHERE ward_id = $1 AND active`, wardID).Scan(&n)
	return n, err
}

// -- Rooms --

const roomCols = `id, ward_id, room_number, room_name, category, capacity, amenities, active, created_at`

func (r *repoPG) CreateRoom(ctx context.Context, rm *Room) error {
	rm.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO rooms (id, ward_id, room_number, room_name, category, capacity, amenities, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,true)`,
		rm.ID, rm.WardID, rm.RoomNumber, rm.RoomName, rm.Category, rm.Capacity, rm.Amenities,
	)
	return err
}

func (r *repoPG) GetRoom(ctx context.Context, id uuid.UUID) (*Room, error) {
	var rm Room
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, id).
		Scan(&rm.ID, &rm.WardID, &rm.RoomNumber, &rm.RoomName, &rm.Category, &rm.Capacity, &rm.Amenities, &rm.Active, &rm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *repoPG) ListRooms(ctx context.Context, wardID uuid.UUID) ([]*Room, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+roomCols+` FROM rooms WHERE ward_id = $1 AND active ORDER BY room_number`,
		wardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*Room
	for rows.Next() {
		var rm Room
		if err := rows.Scan(&rm.ID, &rm.WardID, &rm.RoomNumber, &rm.RoomName, &rm.Category, &rm.Capacity, &rm.Amenities, &rm.Active, &rm.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, &rm)
	}
	return rooms, rows.Err()
}

func (r *repoPG) UpdateRoom(ctx context.Context, rm *Room) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE rooms SET room_number=$2, room_name=$3, category=$4, capacity=$5, amenities=$6
		WHERE id = $1`,
		rm.ID, rm.RoomNumber, rm.RoomName, rm.Category, rm.Capacity, rm.Amenities,
	)
	return err
}

func (r *repoPG) DeactivateRoom(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE rooms SET active = false WHERE id = $1`, id)
	return err
}

func (r *repoPG) CountBedsByRoom(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM beds WHERE room_id = $1`, roomID).Scan(&n)
	return n, err
}

// -- Beds --

const bedCols = `id, room_id, bed_number, bed_name, status, bed_type, equipment, notes,
	last_cleaned_at, blocked_reason, blocked_until, created_at, updated_at`

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	if b.Status == "" {
		b.Status = BedAvailable
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO beds (id, room_id, bed_number, bed_name, status, bed_type, equipment, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.ID, b.RoomID, b.BedNumber, b.BedName, b.Status, b.BedType, b.Equipment, b.Notes,
	)
	return err
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM beds WHERE id = $1`, id))
}

func (r *repoPG) ListBeds(ctx context.Context, roomID uuid.UUID) ([]*Bed, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+bedCols+` FROM beds WHERE room_id = $1 ORDER BY bed_number`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beds []*Bed
	for rows.Next() {
		b, err := scanBedRow(rows)
		if err != nil {
			return nil, err
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func (r *repoPG) UpdateBed(ctx context.Context, b *Bed) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET bed_number=$2, bed_name=$3, bed_type=$4, equipment=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.BedNumber, b.BedName, b.BedType, b.Equipment, b.Notes,
	)
	return err
}

func (r *repoPG) UpdateBedStatus(ctx context.Context, b *Bed) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE beds SET status=$2, last_cleaned_at=$3, blocked_reason=$4, blocked_until=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Status, b.LastCleanedAt, b.BlockedReason, b.BlockedUntil,
	)
	return err
}

func (r *repoPG) DeleteBed(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM beds WHERE id = $1`, id)
	return err
}

func (r *repoPG) ClaimBed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE beds SET status='occupied', updated_at=NOW() WHERE id = $1 AND status='available'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) ReleaseBed(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE beds SET status='cleaning', updated_at=NOW() WHERE id = $1 AND status='occupied'`, id)
	return err
}

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(
		&b.ID, &b.RoomID, &b.BedNumber, &b.BedName, &b.Status, &b.BedType, &b.Equipment, &b.Notes,
		&b.LastCleanedAt, &b.BlockedReason, &b.BlockedUntil, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBedRow(rows pgx.Rows) (*Bed, error) {
	var b Bed
	err := rows.Scan(
		&b.ID, &b.RoomID, &b.BedNumber, &b.BedName, &b.Status, &b.BedType, &b.Equipment, &b.Notes,
		&b.LastCleanedAt, &b.BlockedReason, &b.BlockedUntil, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
