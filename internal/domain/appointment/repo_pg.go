package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, scheduled_at, status, reason, notes, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Status,
		&a.Reason, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, status, reason, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Status, a.Reason, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR patient_id = $1)
		AND ($2::uuid IS NULL OR doctor_id = $2)
		AND ($3 = '' OR status = $3)`
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments`+where, f.PatientID, f.DoctorID, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments`+where+` ORDER BY scheduled_at DESC LIMIT $4 OFFSET $5`,
		f.PatientID, f.DoctorID, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// UpdateStatus is a conditional transition: the WHERE clause pins the current
// status, so two racing writers cannot both win.
func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status=$3, notes = CASE WHEN $4 = '' THEN notes ELSE $4 END, updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Update only lands while the appointment is still scheduled; a terminal
// record is immutable.
func (r *repoPG) Update(ctx context.Context, a *Appointment) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET scheduled_at=$2, reason=$3, notes=$4, updated_at=NOW()
		WHERE id = $1 AND status = 'scheduled'`,
		a.ID, a.ScheduledAt, a.Reason, a.Notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&n)
	return n, err
}
