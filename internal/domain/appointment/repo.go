package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List to a single patient or doctor; nil fields match all.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    Status
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	// UpdateStatus transitions the appointment only if it is currently in
	// fromStatus, reporting whether a row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes string) (bool, error)
	// Update rewrites the editable fields only while the appointment is
	// still scheduled, reporting whether a row changed.
	Update(ctx context.Context, a *Appointment) (bool, error)
	Count(ctx context.Context) (int, error)
}
