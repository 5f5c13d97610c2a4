package pharmacy

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Medicines ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository {
	return &medicineRepoPG{pool: pool}
}

const medicineCols = `id, name, description, price, is_available, created_at, updated_at`

func scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Available, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medicines (id, name, description, price, is_available)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.Name, m.Description, m.Price, m.Available)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return scanMedicine(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE medicines SET name=$2, description=$3, price=$4, is_available=$5, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Description, m.Price, m.Available)
	return err
}

func (r *medicineRepoPG) List(ctx context.Context, availableOnly bool, limit, offset int) ([]*Medicine, int, error) {
	where := ` WHERE ($1 = false OR is_available)`
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM medicines`+where, availableOnly).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+medicineCols+` FROM medicines`+where+` ORDER BY name LIMIT $2 OFFSET $3`,
		availableOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

// =========== Inventory ===========

type inventoryRepoPG struct{ pool *pgxpool.Pool }

func NewInventoryRepoPG(pool *pgxpool.Pool) InventoryRepository {
	return &inventoryRepoPG{pool: pool}
}

const invCols = `id, medicine_id, batch_number, quantity, expires_at, created_at, updated_at`

func scanInventory(row pgx.Row) (*InventoryItem, error) {
	var i InventoryItem
	err := row.Scan(&i.ID, &i.MedicineID, &i.BatchNumber, &i.Quantity, &i.ExpiresAt, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

// AddStock relies on the UNIQUE (medicine_id, batch_number) constraint:
// restocking an existing batch accumulates quantity in one statement, so two
// concurrent restocks both land.
func (r *inventoryRepoPG) AddStock(ctx context.Context, item *InventoryItem) (*InventoryItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return scanInventory(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO inventory (id, medicine_id, batch_number, quantity, expires_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (medicine_id, batch_number) DO UPDATE
			SET quantity = inventory.quantity + EXCLUDED.quantity,
			    expires_at = COALESCE(EXCLUDED.expires_at, inventory.expires_at),
			    updated_at = NOW()
		RETURNING `+invCols,
		item.ID, item.MedicineID, item.BatchNumber, item.Quantity, item.ExpiresAt))
}

func (r *inventoryRepoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*InventoryItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+invCols+` FROM inventory WHERE medicine_id = $1 ORDER BY batch_number`, medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*InventoryItem
	for rows.Next() {
		i, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *inventoryRepoPG) TotalQuantity(ctx context.Context, medicineID uuid.UUID) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE medicine_id = $1`, medicineID).Scan(&n)
	return n, err
}

// =========== Orders ===========

type orderRepoPG struct{ pool *pgxpool.Pool }

func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

const orderCols = `id, patient_id, medicine_id, quantity, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.PatientID, &o.MedicineID, &o.Quantity, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *orderRepoPG) Create(ctx context.Context, o *Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO pharmacy_orders (id, patient_id, medicine_id, quantity, status)
		VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.PatientID, o.MedicineID, o.Quantity, o.Status)
	return err
}

func (r *orderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+orderCols+` FROM pharmacy_orders WHERE id = $1`, id))
}

func (r *orderRepoPG) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Order, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR patient_id = $1)`
	var total int
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM pharmacy_orders`+where, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+orderCols+` FROM pharmacy_orders`+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
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

func (r *orderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE pharmacy_orders SET status=$3, updated_at=NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
