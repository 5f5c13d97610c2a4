package hospital

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	List(ctx context.Context, status ApprovalStatus, limit, offset int) ([]*Hospital, int, error)
	// Decide moves a pending hospital to its final status, recording who
	// decided and when. The update only fires while the hospital is still
	// pending, so exactly one of two racing decisions wins.
	Decide(ctx context.Context, id uuid.UUID, to ApprovalStatus, decidedBy uuid.UUID, decidedAt time.Time, reason string) (bool, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	ListByHospital(ctx context.Context, hospitalID uuid.UUID) ([]*Department, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
}
