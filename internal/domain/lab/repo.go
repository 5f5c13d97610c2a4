package lab

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TestRepository interface {
	Create(ctx context.Context, t *Test) error
	GetByID(ctx context.Context, id uuid.UUID) (*Test, error)
	Update(ctx context.Context, t *Test) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Test, int, error)
}

// OrderFilter narrows List; nil fields match all.
type OrderFilter struct {
	PatientID *uuid.UUID
	Status    OrderStatus
}

type OrderRepository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, f OrderFilter, limit, offset int) ([]*Order, int, error)
	// UpdateStatus transitions the order only if it is currently in from,
	// stamping completed_at when to is completed. Reports whether a row
	// changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus) (bool, error)
	// Reschedule moves scheduled_at only while the order is still open
	// (pending or in-progress).
	Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	Count(ctx context.Context) (int, error)
}

type ResultRepository interface {
	Create(ctx context.Context, r *Result) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Result, error)
}
