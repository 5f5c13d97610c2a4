package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	List(ctx context.Context, availableOnly bool, limit, offset int) ([]*Medicine, int, error)
}

type InventoryRepository interface {
	// AddStock merges quantity into the (medicine, batch) line, creating it
	// if absent. The merge is a single atomic upsert.
	AddStock(ctx context.Context, item *InventoryItem) (*InventoryItem, error)
	ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*InventoryItem, error)
	TotalQuantity(ctx context.Context, medicineID uuid.UUID) (int, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]*Order, int, error)
	// UpdateStatus transitions the order only if it is currently in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) (bool, error)
}
