package ledger

import (
	"context"
	"errors"
	"time"

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

const allocCols = `id, encounter_id, bed_id, from_at, to_at, reason, performed_by, created_at`

func (r *repoPG) Open(ctx context.Context, a *BedAllocation) error {
	a.ID = uuid.New()
	if a.FromAt.IsZero() {
		a.FromAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bed_allocations (id, encounter_id, bed_id, from_at, reason, performed_by)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.EncounterID, a.BedID, a.FromAt, a.Reason, a.PerformedBy,
	)
	return err
}

func (r *repoPG) Close(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed_allocations SET to_at = $2 WHERE id = $1 AND to_at IS NULL`, id, at)
	return err
}

func (r *repoPG) OpenByBed(ctx context.Context, bedID uuid.UUID) (*BedAllocation, error) {
	return scanAlloc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allocCols+` FROM bed_allocations WHERE bed_id = $1 AND to_at IS NULL`, bedID))
}

func (r *repoPG) OpenByEncounter(ctx context.Context, encounterID uuid.UUID) (*BedAllocation, error) {
	return scanAlloc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+allocCols+` FROM bed_allocations WHERE encounter_id = $1 AND to_at IS NULL`, encounterID))
}

func (r *repoPG) HistoryByEncounter(ctx context.Context, encounterID uuid.UUID, limit, offset int) ([]*BedAllocation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_allocations WHERE encounter_id = $1`, encounterID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+allocCols+` FROM bed_allocations WHERE encounter_id = $1 ORDER BY from_at LIMIT $2 OFFSET $3`,
		encounterID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAllocs(rows, total)
}

func (r *repoPG) HistoryByBed(ctx context.Context, bedID uuid.UUID, limit, offset int) ([]*BedAllocation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_allocations WHERE bed_id = $1`, bedID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+allocCols+` FROM bed_allocations WHERE bed_id = $1 ORDER BY from_at DESC LIMIT $2 OFFSET $3`,
		bedID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAllocs(rows, total)
}

func (r *repoPG) OpenAllocationsForBed(ctx context.Context, bedID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bed_allocations WHERE bed_id = $1 AND to_at IS NULL`, bedID).Scan(&n)
	return n, err
}

func (r *repoPG) OpenAllocationsForRoom(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM bed_allocations a
		JOIN beds b ON b.id = a.bed_id
		WHERE b.room_id = $1 AND a.to_at IS NULL`, roomID).Scan(&n)
	return n, err
}

func (r *repoPG) OpenAllocationsForWard(ctx context.Context, wardID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM bed_allocations a
		JOIN beds b ON b.id = a.bed_id
		JOIN rooms rm ON rm.id = b.room_id
		WHERE rm.ward_id = $1 AND a.to_at IS NULL`, wardID).Scan(&n)
	return n, err
}

func (r *repoPG) OpenAllocationsForFloor(ctx context.Context, floorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM bed_allocations a
		JOIN beds b ON b.id = a.bed_id
		JOIN rooms rm ON rm.id = b.room_id
		JOIN wards w ON w.id = rm.ward_id
		WHERE w.floor_id = $1 AND a.to_at IS NULL`, floorID).Scan(&n)
	return n, err
}

func scanAlloc(row pgx.Row) (*BedAllocation, error) {
	var a BedAllocation
	err := row.Scan(&a.ID, &a.EncounterID, &a.BedID, &a.FromAt, &a.ToAt, &a.Reason, &a.PerformedBy, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAllocs(rows pgx.Rows, total int) ([]*BedAllocation, int, error) {
	var allocs []*BedAllocation
	for rows.Next() {
		var a BedAllocation
		if err := rows.Scan(&a.ID, &a.EncounterID, &a.BedID, &a.FromAt, &a.ToAt, &a.Reason, &a.PerformedBy, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		allocs = append(allocs, &a)
	}
	return allocs, total, rows.Err()
}
