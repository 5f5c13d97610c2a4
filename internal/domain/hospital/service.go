package hospital

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

// StaffLister lists the user accounts affiliated with a hospital. The user
// repository satisfies it.
type StaffLister interface {
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*user.User, int, error)
}

type Service struct {
	repo        Repository
	departments DepartmentRepository
	staff       StaffLister
}

func NewService(repo Repository, departments DepartmentRepository, staff StaffLister) *Service {
	return &Service{repo: repo, departments: departments, staff: staff}
}

// Register submits a hospital for onboarding. It enters the queue as
// pending; nothing hospital-scoped works until a system admin approves it.
func (s *Service) Register(ctx context.Context, ident *auth.Identity, req *RegisterRequest) (*Hospital, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	h := &Hospital{
		Name:           strings.TrimSpace(req.Name),
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		Status:         StatusPending,
		RegisteredByID: ident.UserID,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return nil, apperr.Internal(err, "creating hospital")
	}
	return h, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("hospital not found")
		}
		return nil, apperr.Internal(err, "fetching hospital")
	}
	return h, nil
}

// List is scoped by role: system admins see every hospital and may filter by
// status, a hospital admin sees only their own hospital, and everyone else
// gets the directory of approved hospitals.
func (s *Service) List(ctx context.Context, ident *auth.Identity, status ApprovalStatus, limit, offset int) ([]*Hospital, int, error) {
	if ident.Role == auth.RoleHospitalAdmin {
		if ident.HospitalID == nil {
			return []*Hospital{}, 0, nil
		}
		h, err := s.repo.GetByID(ctx, *ident.HospitalID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return []*Hospital{}, 0, nil
			}
			return nil, 0, apperr.Internal(err, "fetching hospital")
		}
		return []*Hospital{h}, 1, nil
	}
	if ident.Role != auth.RoleSystemAdmin {
		status = StatusApproved
	}
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, 0, apperr.Invalid("invalid status: %s", status)
	}
	items, total, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing hospitals")
	}
	return items, total, nil
}

// Approve finalizes a pending hospital. The decision records who approved
// and when, and is irreversible; losing a race against another decision
// reports the status that actually landed.
func (s *Service) Approve(ctx context.Context, ident *auth.Identity, id uuid.UUID) (*Hospital, error) {
	return s.decide(ctx, ident, id, StatusApproved, "")
}

// Reject finalizes a pending hospital with a reason.
func (s *Service) Reject(ctx context.Context, ident *auth.Identity, id uuid.UUID, req *RejectRequest) (*Hospital, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperr.Invalid("a rejection reason is required")
	}
	return s.decide(ctx, ident, id, StatusRejected, strings.TrimSpace(req.Reason))
}

func (s *Service) decide(ctx context.Context, ident *auth.Identity, id uuid.UUID, to ApprovalStatus, reason string) (*Hospital, error) {
	if ident.Role != auth.RoleSystemAdmin {
		return nil, apperr.Forbidden("only a system administrator can decide hospital registrations")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	changed, err := s.repo.Decide(ctx, id, to, ident.UserID, time.Now().UTC(), reason)
	if err != nil {
		return nil, apperr.Internal(err, "deciding hospital registration")
	}
	if !changed {
		current, refetchErr := s.repo.GetByID(ctx, id)
		if refetchErr != nil {
			return nil, apperr.Internal(refetchErr, "fetching hospital")
		}
		return nil, apperr.Conflict("hospital registration is already %s", current.Status)
	}
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "fetching hospital")
	}
	return h, nil
}

// -- Departments --

// CreateDepartment adds a department. Only an approved hospital can be
// organized; a hospital admin may only touch their own hospital.
func (s *Service) CreateDepartment(ctx context.Context, ident *auth.Identity, hospitalID uuid.UUID, req *CreateDepartmentRequest) (*Department, error) {
	if !ident.AllowsHospital(hospitalID) {
		return nil, apperr.Forbidden("not permitted to manage this hospital")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	h, err := s.Get(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	if h.Status != StatusApproved {
		return nil, apperr.Conflict("hospital is %s; departments require an approved hospital", h.Status)
	}

	d := &Department{HospitalID: hospitalID, Name: strings.TrimSpace(req.Name)}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, apperr.Internal(err, "creating department")
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context, hospitalID uuid.UUID) ([]*Department, error) {
	if _, err := s.Get(ctx, hospitalID); err != nil {
		return nil, err
	}
	items, err := s.departments.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, apperr.Internal(err, "listing departments")
	}
	return items, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, ident *auth.Identity, id uuid.UUID) error {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("department not found")
		}
		return apperr.Internal(err, "fetching department")
	}
	if !ident.AllowsHospital(d.HospitalID) {
		return apperr.Forbidden("not permitted to manage this hospital")
	}
	deleted, err := s.departments.Delete(ctx, id)
	if err != nil {
		return apperr.Internal(err, "deleting department")
	}
	if !deleted {
		return apperr.NotFound("department not found")
	}
	return nil
}

// ListStaff returns the user accounts affiliated with a hospital. A hospital
// admin may only inspect their own hospital's roster.
func (s *Service) ListStaff(ctx context.Context, ident *auth.Identity, hospitalID uuid.UUID, limit, offset int) ([]*user.User, int, error) {
	if !ident.AllowsHospital(hospitalID) {
		return nil, 0, apperr.Forbidden("not permitted to view this hospital's staff")
	}
	if _, err := s.Get(ctx, hospitalID); err != nil {
		return nil, 0, err
	}
	items, total, err := s.staff.ListByHospital(ctx, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err, "listing staff")
	}
	return items, total, nil
}

func (s *Service) CountByStatus(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "counting hospitals")
	}
	return counts, nil
}
