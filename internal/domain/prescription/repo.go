package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List to a single patient or doctor; nil fields match all.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// Repository has no delete: a prescription is withdrawn by issuing a
// replacement, never by erasing the record.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error)
}
