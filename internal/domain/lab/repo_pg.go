package lab

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

// =========== Test catalog ===========

type testRepoPG struct{ pool *pgxpool.Pool }

func NewTestRepoPG(pool *pgxpool.Pool) TestRepository {
	return &testRepoPG{pool: pool}
}

const testCols = `id, name, description, price, is_active, created_at, updated_at`

func scanTest(row pgx.Row) (*Test, error) {
	var t Test
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Price, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *testRepoPG) Create(ctx context.Context, t *Test) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lab_tests (id, name, description, price, is_active)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Name, t.Description, t.Price, t.Active)
	return err
}

func (r *testRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Test, error) {
	return scanTest(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+testCols+` FROM lab_tests WHERE id = $1`, id))
}

func (r *testRepoPG) Update(ctx context.Context, t *Test) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE lab_tests SET name=$2, description=$3, price=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Description, t.Price, t.Active)
	return err
}

func (r *testRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Test, int, error) {
	where := ` WHERE ($1 = false OR is_active)`
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM lab_tests`+where, activeOnly).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+testCols+` FROM lab_tests`+where+` ORDER BY name LIMIT $2 OFFSET $3`,
		activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

// =========== Orders ===========

type orderRepoPG struct{ pool *pgxpool.Pool }

func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

const orderCols = `id, patient_id, test_id, ordered_by_id, status, scheduled_at,
	completed_at, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.PatientID, &o.TestID, &o.OrderedByID, &o.Status,
		&o.ScheduledAt, &o.CompletedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *orderRepoPG) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lab_orders (id, patient_id, test_id, ordered_by_id, status, scheduled_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.PatientID, o.TestID, o.OrderedByID, o.Status, o.ScheduledAt, o.Notes)
	return err
}

func (r *orderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+orderCols+` FROM lab_orders WHERE id = $1`, id))
}

func (r *orderRepoPG) List(ctx context.Context, f OrderFilter, limit, offset int) ([]*Order, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR patient_id = $1) AND ($2 = '' OR status = $2)`
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM lab_orders`+where, f.PatientID, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+orderCols+` FROM lab_orders`+where+` ORDER BY scheduled_at DESC LIMIT $3 OFFSET $4`,
		f.PatientID, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

// UpdateStatus pins the current status in the WHERE clause so concurrent
// transitions cannot both succeed. completed_at is stamped exactly once, by
// the transition into completed.
func (r *orderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE lab_orders SET status=$3,
			completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END,
			updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Reschedule puts the order back at the start of the lifecycle with a new
// slot. Only cancellation is final; a completed order can be rerun.
func (r *orderRepoPG) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE lab_orders SET status='pending', scheduled_at=$2, completed_at=NULL, updated_at=NOW()
		WHERE id = $1 AND status <> 'cancelled'`,
		id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM lab_orders`).Scan(&n)
	return n, err
}

// =========== Results ===========

type resultRepoPG struct{ pool *pgxpool.Pool }

func NewResultRepoPG(pool *pgxpool.Pool) ResultRepository {
	return &resultRepoPG{pool: pool}
}

func (r *resultRepoPG) Create(ctx context.Context, res *Result) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO lab_results (id, order_id, findings, remarks, recorded_by)
		VALUES ($1,$2,$3,$4,$5)`,
		res.ID, res.OrderID, res.Findings, res.Remarks, res.RecordedBy)
	return err
}

func (r *resultRepoPG) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	var res Result
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, order_id, findings, remarks, recorded_by, created_at
		FROM lab_results WHERE order_id = $1`, orderID).
		Scan(&res.ID, &res.OrderID, &res.Findings, &res.Remarks, &res.RecordedBy, &res.CreatedAt)
	return &res, err
}
