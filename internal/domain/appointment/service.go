package appointment

import (
	"context"
	"errors"
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

// Book creates a scheduled appointment. A patient books for themselves and
// cannot book on behalf of another patient; staff must name the patient.
func (s *Service) Book(ctx context.Context, ident *auth.Identity, req *CreateRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, apperr.Invalid("doctor_id is required")
	}
	if req.ScheduledAt.IsZero() {
		return nil, apperr.Invalid("scheduled_at is required")
	}
	if req.ScheduledAt.Before(time.Now()) {
		return nil, apperr.Invalid("scheduled_at must be in the future")
	}

	var patientID uuid.UUID
	if ident.Role == auth.RolePatient {
		if ident.PatientID == nil {
			return nil, apperr.Forbidden("no patient profile for this account")
		}
		patientID = *ident.PatientID
	} else {
		if req.PatientID == nil || *req.PatientID == uuid.Nil {
			return nil, apperr.Invalid("patient_id is required")
		}
		patientID = *req.PatientID
	}

	a := &Appointment{
		PatientID:   patientID,
		DoctorID:    req.DoctorID,
		ScheduledAt: req.ScheduledAt,
		Status:      StatusScheduled,
		Reason:      req.Reason,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, apperr.Internal(err, "creating appointment")
	}
	return a, nil
}

// Get returns an appointment after the ownership gate: the patient on the
// appointment, the doctor on it, or an admin.
func (s *Service) Get(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Internal(err, "fetching appointment")
	}
	if !s.canView(ident, a) {
		return nil, apperr.Forbidden("not permitted to view this appointment")
	}
	return a, nil
}

func (s *Service) canView(ident *auth.Identity, a *Appointment) bool {
	switch ident.Role {
	case auth.RoleSystemAdmin, auth.RoleHospitalAdmin:
		return true
	case auth.RolePatient:
		return ident.PatientID != nil && *ident.PatientID == a.PatientID
	case auth.RoleDoctor:
		return ident.DoctorID != nil && *ident.DoctorID == a.DoctorID
	}
	return false
}

// List is scoped by role: a patient sees only their appointments, a doctor
// only theirs, admins everything.
func (s *Service) List(ctx context.Context, ident *auth.Identity, status Status, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, apperr.Invalid("invalid status: %s", status)
	}
	f := Filter{Status: status}
	switch ident.Role {
	case auth.RolePatient:
		if ident.PatientID == nil {
			return []*Appointment{}, 0, nil
		}
		f.PatientID = ident.PatientID
	case auth.RoleDoctor:
		if ident.DoctorID == nil {
			return []*Appointment{}, 0, nil
		}
		f.DoctorID = ident.DoctorID
	case auth.RoleSystemAdmin, auth.RoleHospitalAdmin:
		// unscoped
	default:
		return nil, 0, apperr.Forbidden("role %s cannot list appointments", ident.Role)
	}
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing appointments")
	}
	return items, total, nil
}

// Update edits a scheduled appointment, most commonly to move its slot. The
// ownership gate from Get applies; terminal appointments cannot be edited.
func (s *Service) Update(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateRequest) (*Appointment, error) {
	a, err := s.Get(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, apperr.Conflict("cannot edit a %s appointment", a.Status)
	}

	if req.ScheduledAt != nil {
		if req.ScheduledAt.IsZero() {
			return nil, apperr.Invalid("scheduled_at cannot be empty")
		}
		if req.ScheduledAt.Before(time.Now()) {
			return nil, apperr.Invalid("scheduled_at must be in the future")
		}
		a.ScheduledAt = *req.ScheduledAt
	}
	if req.Reason != nil {
		a.Reason = *req.Reason
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}

	changed, err := s.repo.Update(ctx, a)
	if err != nil {
		return nil, apperr.Internal(err, "updating appointment")
	}
	if !changed {
		current, refetchErr := s.repo.GetByID(ctx, id)
		if refetchErr != nil {
			return nil, apperr.Internal(refetchErr, "fetching appointment")
		}
		return nil, apperr.Conflict("appointment is already %s", current.Status)
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "fetching appointment")
	}
	return updated, nil
}

// UpdateStatus moves a scheduled appointment to a terminal state. The
// transition is conditional on the current status, so a concurrent change
// surfaces as a conflict rather than a silent overwrite.
func (s *Service) UpdateStatus(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *UpdateStatusRequest) (*Appointment, error) {
	if !validStatuses[req.Status] {
		return nil, apperr.Invalid("invalid status: %s", req.Status)
	}
	if req.Status == StatusScheduled {
		return nil, apperr.Invalid("cannot transition back to scheduled")
	}

	if _, err := s.Get(ctx, ident, id); err != nil {
		return nil, err
	}

	// Patients may only cancel; the clinical outcomes are the doctor's call.
	if ident.Role == auth.RolePatient && req.Status != StatusCancelled {
		return nil, apperr.Forbidden("patients may only cancel appointments")
	}

	changed, err := s.repo.UpdateStatus(ctx, id, StatusScheduled, req.Status, req.Notes)
	if err != nil {
		return nil, apperr.Internal(err, "updating appointment")
	}
	if !changed {
		// Lost the race or the appointment already left scheduled; report
		// the state the caller actually collided with.
		current, refetchErr := s.repo.GetByID(ctx, id)
		if refetchErr != nil {
			return nil, apperr.Internal(refetchErr, "fetching appointment")
		}
		return nil, apperr.Conflict("appointment is already %s", current.Status)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "fetching appointment")
	}
	return a, nil
}
