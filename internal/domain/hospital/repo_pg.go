package hospital

import (
	"context"
	"time"

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const hospitalCols = `id, name, address, phone, email, status, registered_by_id,
	decided_by_id, decided_at, rejection_reason, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Phone, &h.Email, &h.Status,
		&h.RegisteredByID, &h.DecidedByID, &h.DecidedAt, &h.RejectionReason,
		&h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO hospitals (id, name, address, phone, email, status, registered_by_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		h.ID, h.Name, h.Address, h.Phone, h.Email, h.Status, h.RegisteredByID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Hospital, int, error) {
	where := ` WHERE ($1 = '' OR status = $1)`
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`+where, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+hospitalCols+` FROM hospitals`+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, rows.Err()
}

// Decide pins status = 'pending' in the WHERE clause; once a decision lands
// the row never matches again, making the decision permanent.
func (r *repoPG) Decide(ctx context.Context, id uuid.UUID, to ApprovalStatus, decidedBy uuid.UUID, decidedAt time.Time, reason string) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE hospitals SET status=$2, decided_by_id=$3, decided_at=$4,
			rejection_reason=$5, updated_at=NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, to, decidedBy, decidedAt, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&n)
	return n, err
}

func (r *repoPG) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT status, COUNT(*) FROM hospitals GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// =========== Departments ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO departments (id, hospital_id, name) VALUES ($1,$2,$3)`,
		d.ID, d.HospitalID, d.Name)
	return err
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	var d Department
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, hospital_id, name, created_at FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.HospitalID, &d.Name, &d.CreatedAt)
	return &d, err
}

func (r *departmentRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*Department, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, hospital_id, name, created_at FROM departments
		WHERE hospital_id = $1 ORDER BY name`, hospitalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.HospitalID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *departmentRepoPG) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
