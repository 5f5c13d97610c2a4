package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*User, int, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*User, int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	// ProfileIDs returns the patient and doctor profile row ids owned by the
	// user, either of which may be nil.
	ProfileIDs(ctx context.Context, userID uuid.UUID) (patientID, doctorID *uuid.UUID, err error)
}
