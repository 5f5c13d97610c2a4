package lab

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the closed lab order lifecycle.
//
//	pending -> in-progress -> completed
//	pending | in-progress -> cancelled
//
// completed and cancelled are terminal.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in-progress"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]bool{
	StatusPending: true, StatusInProgress: true, StatusCompleted: true, StatusCancelled: true,
}

// allowedTransitions maps each status to its reachable successors.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func canTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Test is a catalog entry describing an orderable lab test.
type Test struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order is a patient's booking of a catalog test.
type Order struct {
	ID          uuid.UUID   `json:"id"`
	PatientID   uuid.UUID   `json:"patient_id"`
	TestID      uuid.UUID   `json:"test_id"`
	OrderedByID *uuid.UUID  `json:"ordered_by_id,omitempty"` // referring doctor, if any
	Status      OrderStatus `json:"status"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Result is the findings attached when an order completes. The report
// endpoint only serves results of completed orders.
type Result struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	Findings   string    `json:"findings"`
	Remarks    string    `json:"remarks,omitempty"`
	RecordedBy uuid.UUID `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateTestRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type UpdateTestRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Active      *bool    `json:"is_active,omitempty"`
}

type CreateOrderRequest struct {
	PatientID   *uuid.UUID `json:"patient_id,omitempty"` // ignored for patient callers
	TestID      uuid.UUID  `json:"test_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Notes       string     `json:"notes,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type RecordResultRequest struct {
	Findings string `json:"findings"`
	Remarks  string `json:"remarks,omitempty"`
}

// Report is the patient-facing view of a completed order.
type Report struct {
	Order  *Order  `json:"order"`
	Test   *Test   `json:"test"`
	Result *Result `json:"result"`
}
