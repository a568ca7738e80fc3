package lifecycle

import (
	"context"
	"errors"
	"fmt"

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

// Current bed comes from the open allocation, joined at read time.
const encCols = `e.id, e.hospital_id, e.patient_id, e.admitting_doctor_id, e.attending_doctor_id,
	e.admission_type, e.status, e.admitted_at, e.discharged_at, e.discharge_summary,
	a.bed_id, e.created_at, e.updated_at`

const encFrom = ` FROM ipd_encounters e
	LEFT JOIN bed_allocations a ON a.encounter_id = e.id AND a.to_at IS NULL`

func (r *repoPG) Create(ctx context.Context, e *Encounter) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ipd_encounters (id, hospital_id, patient_id, admitting_doctor_id, attending_doctor_id,
			admission_type, status, admitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		e.ID, e.HospitalID, e.PatientID, e.AdmittingDoctorID, e.AttendingDoctorID,
		e.AdmissionType, e.Status, e.AdmittedAt,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Encounter, error) {
	return scanEnc(r.conn(ctx).QueryRow(ctx, `SELECT `+encCols+encFrom+` WHERE e.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, e *Encounter) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE ipd_encounters SET
			attending_doctor_id=$2, status=$3, discharged_at=$4, discharge_summary=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.AttendingDoctorID, e.Status, e.DischargedAt, e.DischargeSummary,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Encounter, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	n := 0
	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if f.HospitalID != nil {
		where += ` AND e.hospital_id = ` + arg(*f.HospitalID)
	}
	if f.PatientID != nil {
		where += ` AND e.patient_id = ` + arg(*f.PatientID)
	}
	if f.DoctorID != nil {
		p := arg(*f.DoctorID)
		where += ` AND (e.attending_doctor_id = ` + p + ` OR e.admitting_doctor_id = ` + p + `)`
	}
	if f.Status != nil {
		where += ` AND e.status = ` + arg(*f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM ipd_encounters e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + encCols + encFrom + where +
		` ORDER BY e.admitted_at DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var encs []*Encounter
	for rows.Next() {
		var e Encounter
		if err := rows.Scan(
			&e.ID, &e.HospitalID, &e.PatientID, &e.AdmittingDoctorID, &e.AttendingDoctorID,
			&e.AdmissionType, &e.Status, &e.AdmittedAt, &e.DischargedAt, &e.DischargeSummary,
			&e.CurrentBedID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		encs = append(encs, &e)
	}
	return encs, total, rows.Err()
}

func scanEnc(row pgx.Row) (*Encounter, error) {
	var e Encounter
	err := row.Scan(
		&e.ID, &e.HospitalID, &e.PatientID, &e.AdmittingDoctorID, &e.AttendingDoctorID,
		&e.AdmissionType, &e.Status, &e.AdmittedAt, &e.DischargedAt, &e.DischargeSummary,
		&e.CurrentBedID, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
