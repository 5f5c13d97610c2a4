package sysadmin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type mockUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[uuid.UUID]*user.User{}}
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) Update(_ context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.users[id].PasswordHash = hash
	return nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.users[id].Active = active
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*user.User, int, error) {
	var out []*user.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string, limit, offset int) ([]*user.User, int, error) {
	var out []*user.User
	for _, u := range m.users {
		if string(u.Role) == role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*user.User, int, error) {
	var out []*user.User
	for _, u := range m.users {
		if u.HospitalID != nil && *u.HospitalID == hospitalID {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, u := range m.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

func (m *mockUserRepo) ProfileIDs(_ context.Context, _ uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	return nil, nil, nil
}

type fixedCounter int

func (f fixedCounter) Count(context.Context) (int, error) { return int(f), nil }

type fixedHospitalStats map[string]int

func (f fixedHospitalStats) CountByStatus(context.Context) (map[string]int, error) {
	return map[string]int(f), nil
}

func newTestService(t *testing.T) (*Service, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	issuer := auth.NewTokenIssuer("test-secret", 0)
	users := user.NewService(repo, issuer, nil, nil, nil)
	svc := NewService(users, fixedCounter(4), fixedCounter(2), fixedCounter(9), fixedCounter(3),
		fixedHospitalStats{"pending": 1, "approved": 5})
	return svc, repo
}

func TestDashboard(t *testing.T) {
	svc, repo := newTestService(t)
	for _, role := range []string{"patient", "patient", "doctor"} {
		u := &user.User{ID: uuid.New(), Email: uuid.NewString() + "@x.com", Role: auth.Role(role), Active: true}
		repo.users[u.ID] = u
	}

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.UsersByRole["patient"] != 2 || d.UsersByRole["doctor"] != 1 {
		t.Errorf("users by role = %v", d.UsersByRole)
	}
	if d.Patients != 4 || d.Doctors != 2 || d.Appointments != 9 || d.LabOrders != 3 {
		t.Errorf("counts = %+v", d)
	}
	if d.HospitalsByStatus["pending"] != 1 || d.HospitalsByStatus["approved"] != 5 {
		t.Errorf("hospitals by status = %v", d.HospitalsByStatus)
	}
}

func TestListUsersRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t)

	if _, _, err := svc.ListUsers(context.Background(), "wizard", 20, 0); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("role filter wizard: err = %v, want invalid", err)
	}
}

func TestSetUserActive(t *testing.T) {
	svc, repo := newTestService(t)
	u := &user.User{ID: uuid.New(), Email: "p@x.com", Role: auth.RolePatient, Active: true}
	repo.users[u.ID] = u

	if err := svc.SetUserActive(context.Background(), u.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if u.Active {
		t.Error("user still active after deactivation")
	}

	if err := svc.SetUserActive(context.Background(), uuid.New(), false); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown user: err = %v, want not found", err)
	}
}
