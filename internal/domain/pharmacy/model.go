package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is a catalog entry. Availability is a sales flag, independent of
// whether stock exists.
type Medicine struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Available   bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InventoryItem is a stock line keyed by (medicine, batch). Restocking the
// same batch accumulates quantity instead of creating a second line.
type InventoryItem struct {
	ID          uuid.UUID  `json:"id"`
	MedicineID  uuid.UUID  `json:"medicine_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// OrderStatus is the dispensing lifecycle: pending -> dispensed | cancelled.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderDispensed OrderStatus = "dispensed"
	OrderCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]bool{
	OrderPending: true, OrderDispensed: true, OrderCancelled: true,
}

// Order is a patient's request for a medicine.
type Order struct {
	ID         uuid.UUID   `json:"id"`
	PatientID  uuid.UUID   `json:"patient_id"`
	MedicineID uuid.UUID   `json:"medicine_id"`
	Quantity   int         `json:"quantity"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type CreateMedicineRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type UpdateMedicineRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Available   *bool    `json:"is_available,omitempty"`
}

type AddStockRequest struct {
	MedicineID  uuid.UUID  `json:"medicine_id"`
	BatchNumber string     `json:"batch_number"`
	Quantity    int        `json:"quantity"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type CreateOrderRequest struct {
	PatientID  *uuid.UUID `json:"patient_id,omitempty"` // ignored for patient callers
	MedicineID uuid.UUID  `json:"medicine_id"`
	Quantity   int        `json:"quantity"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}
