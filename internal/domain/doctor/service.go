package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProfileForUser creates the profile row during signup. It implements
// user.DoctorRegistrar and runs inside the registration transaction. New
// doctors start unavailable until they publish their availability.
func (s *Service) CreateProfileForUser(ctx context.Context, userID uuid.UUID, prof user.DoctorProfile) error {
	d := &Doctor{
		UserID:         userID,
		Specialization: prof.Specialization,
		LicenseNumber:  prof.LicenseNumber,
		HospitalID:     prof.HospitalID,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return apperr.Internal(err, "creating doctor profile")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("doctor not found")
		}
		return nil, apperr.Internal(err, "fetching doctor")
	}
	return d, nil
}

func (s *Service) GetOwn(ctx context.Context, ident *auth.Identity) (*Doctor, error) {
	d, err := s.repo.GetByUserID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no doctor profile for this account")
		}
		return nil, apperr.Internal(err, "fetching doctor")
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, specialization string, hospitalID *uuid.UUID, limit, offset int) ([]*Doctor, int, error) {
	items, total, err := s.repo.List(ctx, specialization, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing doctors")
	}
	return items, total, nil
}

// Update applies the mutable profile fields. Admins may edit any doctor; a
// doctor only their own profile.
func (s *Service) Update(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateRequest) (*Doctor, error) {
	if !ident.AllowsDoctorRecord(id) {
		return nil, apperr.Forbidden("not permitted to modify this doctor")
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Specialization != nil {
		d.Specialization = *req.Specialization
	}
	if req.LicenseNumber != nil {
		d.LicenseNumber = *req.LicenseNumber
	}
	if req.HospitalID != nil {
		d.HospitalID = req.HospitalID
	}
	if req.ConsultationFee != nil {
		if *req.ConsultationFee < 0 {
			return nil, apperr.Invalid("consultation_fee cannot be negative")
		}
		d.ConsultationFee = *req.ConsultationFee
	}
	if req.Available != nil {
		d.Available = *req.Available
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, apperr.Internal(err, "updating doctor")
	}
	return d, nil
}
