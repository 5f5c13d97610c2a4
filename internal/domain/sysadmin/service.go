// Package sysadmin aggregates the system administrator's dashboard and user
// administration over the other domain packages.
package sysadmin

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/apperr"
)

// Counter reports the total rows of one collection. Each domain package's
// repository satisfies it.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// HospitalStats exposes the hospital approval-queue breakdown.
type HospitalStats interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Dashboard is the admin landing summary.
type Dashboard struct {
	UsersByRole       map[string]int `json:"users_by_role"`
	Patients          int            `json:"patients"`
	Doctors           int            `json:"doctors"`
	Appointments      int            `json:"appointments"`
	LabOrders         int            `json:"lab_orders"`
	HospitalsByStatus map[string]int `json:"hospitals_by_status"`
}

type Service struct {
	users        *user.Service
	patients     Counter
	doctors      Counter
	appointments Counter
	labOrders    Counter
	hospitals    HospitalStats
}

func NewService(users *user.Service, patients, doctors, appointments, labOrders Counter, hospitals HospitalStats) *Service {
	return &Service{
		users:        users,
		patients:     patients,
		doctors:      doctors,
		appointments: appointments,
		labOrders:    labOrders,
		hospitals:    hospitals,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	var err error

	if d.UsersByRole, err = s.users.CountByRole(ctx); err != nil {
		return nil, err
	}
	if d.Patients, err = s.patients.Count(ctx); err != nil {
		return nil, apperr.Internal(err, "counting patients")
	}
	if d.Doctors, err = s.doctors.Count(ctx); err != nil {
		return nil, apperr.Internal(err, "counting doctors")
	}
	if d.Appointments, err = s.appointments.Count(ctx); err != nil {
		return nil, apperr.Internal(err, "counting appointments")
	}
	if d.LabOrders, err = s.labOrders.Count(ctx); err != nil {
		return nil, apperr.Internal(err, "counting lab orders")
	}
	if d.HospitalsByStatus, err = s.hospitals.CountByStatus(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) ListUsers(ctx context.Context, role string, limit, offset int) ([]*user.User, int, error) {
	return s.users.List(ctx, role, limit, offset)
}

// SetUserActive flips the account switch. Deactivation takes effect on the
// user's next request, since every request re-resolves the account.
func (s *Service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.users.SetActive(ctx, id, active)
}
