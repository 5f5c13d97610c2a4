package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

var validGenders = map[string]bool{
	"": true, "male": true, "female": true, "other": true,
}

var validBloodGroups = map[string]bool{
	"": true, "A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProfileForUser creates the profile row during signup. It implements
// user.PatientRegistrar and runs inside the registration transaction.
func (s *Service) CreateProfileForUser(ctx context.Context, userID uuid.UUID, prof user.PatientProfile) error {
	p := &Patient{
		UserID:           userID,
		Gender:           prof.Gender,
		BloodGroup:       prof.BloodGroup,
		Phone:            prof.Phone,
		Address:          prof.Address,
	}
	if prof.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", prof.DateOfBirth)
		if err != nil {
			return apperr.Invalid("date_of_birth must be YYYY-MM-DD")
		}
		p.DateOfBirth = &dob
	}
	if !validGenders[p.Gender] {
		return apperr.Invalid("invalid gender: %s", p.Gender)
	}
	if !validBloodGroups[p.BloodGroup] {
		return apperr.Invalid("invalid blood_group: %s", p.BloodGroup)
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return apperr.Internal(err, "creating patient profile")
	}
	return nil
}

// Get returns a patient record, enforcing the ownership gate: staff see any
// patient, a patient only their own profile.
func (s *Service) Get(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Patient, error) {
	if !ident.AllowsPatientRecord(id) {
		return nil, apperr.Forbidden("not permitted to view this patient")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Internal(err, "fetching patient")
	}
	return p, nil
}

// GetOwn returns the caller's own profile.
func (s *Service) GetOwn(ctx context.Context, ident *auth.Identity) (*Patient, error) {
	p, err := s.repo.GetByUserID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("no patient profile for this account")
		}
		return nil, apperr.Internal(err, "fetching patient")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing patients")
	}
	return items, total, nil
}

// Update applies the mutable profile fields. The same ownership gate as Get
// applies; nil request fields are left unchanged.
func (s *Service) Update(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateRequest) (*Patient, error) {
	if !ident.AllowsPatientRecord(id) {
		return nil, apperr.Forbidden("not permitted to modify this patient")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Internal(err, "fetching patient")
	}

	if req.DateOfBirth != nil {
		p.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		if !validGenders[*req.Gender] {
			return nil, apperr.Invalid("invalid gender: %s", *req.Gender)
		}
		p.Gender = *req.Gender
	}
	if req.BloodGroup != nil {
		if !validBloodGroups[*req.BloodGroup] {
			return nil, apperr.Invalid("invalid blood_group: %s", *req.BloodGroup)
		}
		p.BloodGroup = *req.BloodGroup
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.EmergencyContact != nil {
		p.EmergencyContact = *req.EmergencyContact
	}
	if req.MedicalHistory != nil {
		p.MedicalHistory = *req.MedicalHistory
	}
	if req.Allergies != nil {
		p.Allergies = *req.Allergies
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err, "updating patient")
	}
	return p, nil
}

// AppendMedicalHistory adds a clinical note to the patient's history without
// touching earlier entries. Patients cannot write to their own history.
func (s *Service) AppendMedicalHistory(ctx context.Context, ident *auth.Identity, id uuid.UUID, note string) (*Patient, error) {
	if ident.Role == auth.RolePatient {
		return nil, apperr.Forbidden("patients cannot modify medical history")
	}
	if !ident.AllowsPatientRecord(id) {
		return nil, apperr.Forbidden("not permitted to modify this patient")
	}
	if strings.TrimSpace(note) == "" {
		return nil, apperr.Invalid("note is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("patient not found")
		}
		return nil, apperr.Internal(err, "fetching patient")
	}

	entry := time.Now().UTC().Format("2006-01-02") + ": " + strings.TrimSpace(note)
	if p.MedicalHistory == "" {
		p.MedicalHistory = entry
	} else {
		p.MedicalHistory += "\n" + entry
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err, "updating patient")
	}
	return p, nil
}
