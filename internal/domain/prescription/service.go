package prescription

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Issue writes a prescription under the calling doctor's identity; the
// prescriber is never taken from the payload.
func (s *Service) Issue(ctx context.Context, ident *auth.Identity, req *CreateRequest) (*Prescription, error) {
	if ident.DoctorID == nil {
		return nil, apperr.Forbidden("no doctor profile for this account")
	}
	if req.PatientID == uuid.Nil {
		return nil, apperr.Invalid("patient_id is required")
	}
	if strings.TrimSpace(req.Medication) == "" {
		return nil, apperr.Invalid("medication is required")
	}
	if strings.TrimSpace(req.Dosage) == "" {
		return nil, apperr.Invalid("dosage is required")
	}

	p := &Prescription{
		PatientID:     req.PatientID,
		DoctorID:      *ident.DoctorID,
		AppointmentID: req.AppointmentID,
		Medication:    strings.TrimSpace(req.Medication),
		Dosage:        strings.TrimSpace(req.Dosage),
		Frequency:     req.Frequency,
		Duration:      req.Duration,
		Instructions:  req.Instructions,
		IssuedAt:      time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err, "creating prescription")
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("prescription not found")
		}
		return nil, apperr.Internal(err, "fetching prescription")
	}
	if !s.canView(ident, p) {
		return nil, apperr.Forbidden("not permitted to view this prescription")
	}
	return p, nil
}

// Update corrects the dosing fields. Only the issuing doctor or an
// administrator may edit; the prescribed parties and issue timestamp stay
// fixed.
func (s *Service) Update(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateRequest) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("prescription not found")
		}
		return nil, apperr.Internal(err, "fetching prescription")
	}
	if !ident.AllowsDoctorRecord(p.DoctorID) {
		return nil, apperr.Forbidden("only the issuing doctor may edit this prescription")
	}

	if req.Dosage != nil {
		if strings.TrimSpace(*req.Dosage) == "" {
			return nil, apperr.Invalid("dosage cannot be blank")
		}
		p.Dosage = strings.TrimSpace(*req.Dosage)
	}
	if req.Frequency != nil {
		p.Frequency = *req.Frequency
	}
	if req.Duration != nil {
		p.Duration = *req.Duration
	}
	if req.Instructions != nil {
		p.Instructions = *req.Instructions
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.Internal(err, "updating prescription")
	}
	return p, nil
}

func (s *Service) canView(ident *auth.Identity, p *Prescription) bool {
	switch ident.Role {
	case auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RolePharmacist:
		return true
	case auth.RolePatient:
		return ident.PatientID != nil && *ident.PatientID == p.PatientID
	case auth.RoleDoctor:
		return ident.DoctorID != nil && *ident.DoctorID == p.DoctorID
	}
	return false
}

// List is scoped by role: patients see their own, doctors what they issued,
// pharmacists and admins everything.
func (s *Service) List(ctx context.Context, ident *auth.Identity, limit, offset int) ([]*Prescription, int, error) {
	var f Filter
	switch ident.Role {
	case auth.RolePatient:
		if ident.PatientID == nil {
			return []*Prescription{}, 0, nil
		}
		f.PatientID = ident.PatientID
	case auth.RoleDoctor:
		if ident.DoctorID == nil {
			return []*Prescription{}, 0, nil
		}
		f.DoctorID = ident.DoctorID
	case auth.RoleSystemAdmin, auth.RoleHospitalAdmin, auth.RolePharmacist:
		// unscoped
	default:
		return nil, 0, apperr.Forbidden("role %s cannot list prescriptions", ident.Role)
	}
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing prescriptions")
	}
	return items, total, nil
}

// ListForPatient lets staff pull one patient's prescription history.
func (s *Service) ListForPatient(ctx context.Context, ident *auth.Identity, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	if !ident.AllowsPatientRecord(patientID) {
		return nil, 0, apperr.Forbidden("not permitted to view this patient's prescriptions")
	}
	items, total, err := s.repo.List(ctx, Filter{PatientID: &patientID}, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing prescriptions")
	}
	return items, total, nil
}
