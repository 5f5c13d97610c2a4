package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type mockRepo struct {
	users    map[uuid.UUID]*User
	byEmail  map[string]uuid.UUID
	patients map[uuid.UUID]uuid.UUID // userID -> patientID
	doctors  map[uuid.UUID]uuid.UUID // userID -> doctorID
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:    map[uuid.UUID]*User{},
		byEmail:  map[string]uuid.UUID{},
		patients: map[uuid.UUID]uuid.UUID{},
		doctors:  map[uuid.UUID]uuid.UUID{},
	}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return &pgconn.PgError{Code: "23505"}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m.users[id], nil
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var all []*User
	for _, u := range m.users {
		all = append(all, u)
	}
	return all, len(all), nil
}

func (m *mockRepo) ListByRole(_ context.Context, role string, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if string(u.Role) == role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if u.HospitalID != nil && *u.HospitalID == hospitalID {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) CountByRole(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, u := range m.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

func (m *mockRepo) ProfileIDs(_ context.Context, userID uuid.UUID) (*uuid.UUID, *uuid.UUID, error) {
	var pid, did *uuid.UUID
	if id, ok := m.patients[userID]; ok {
		pid = &id
	}
	if id, ok := m.doctors[userID]; ok {
		did = &id
	}
	return pid, did, nil
}

type mockPatientReg struct{ repo *mockRepo }

func (r *mockPatientReg) CreateProfileForUser(_ context.Context, userID uuid.UUID, _ PatientProfile) error {
	r.repo.patients[userID] = uuid.New()
	return nil
}

type mockDoctorReg struct{ repo *mockRepo }

func (r *mockDoctorReg) CreateProfileForUser(_ context.Context, userID uuid.UUID, _ DoctorProfile) error {
	r.repo.doctors[userID] = uuid.New()
	return nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	issuer := auth.NewTokenIssuer("test-secret", time.Minute)
	svc := NewService(repo, issuer, &mockPatientReg{repo}, &mockDoctorReg{repo}, nil)
	return svc, repo
}

func TestRegisterPatient(t *testing.T) {
	svc, repo := newTestService()

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Pat@Example.com",
		Password: "password123",
		FullName: "Pat Jones",
		Role:     "patient",
		Gender:   "female",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "pat@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.Role != auth.RolePatient {
		t.Errorf("role = %s", u.Role)
	}
	if !u.Active {
		t.Error("new user should be active")
	}
	if u.PasswordHash == "password123" {
		t.Error("password stored in plaintext")
	}
	if _, ok := repo.patients[u.ID]; !ok {
		t.Error("patient profile row not created")
	}
}

func TestRegisterDoctorCreatesProfile(t *testing.T) {
	svc, repo := newTestService()

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email:          "doc@example.com",
		Password:       "password123",
		FullName:       "Dr Smith",
		Role:           "doctor",
		Specialization: "cardiology",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := repo.doctors[u.ID]; !ok {
		t.Error("doctor profile row not created")
	}
	if _, ok := repo.patients[u.ID]; ok {
		t.Error("doctor should not get a patient profile")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "nope", Password: "password123", FullName: "A", Role: "patient"}},
		{"short password", RegisterRequest{Email: "a@b.com", Password: "short", FullName: "A", Role: "patient"}},
		{"missing name", RegisterRequest{Email: "a@b.com", Password: "password123", Role: "patient"}},
		{"unknown role", RegisterRequest{Email: "a@b.com", Password: "password123", FullName: "A", Role: "wizard"}},
		{"admin self-register", RegisterRequest{Email: "a@b.com", Password: "password123", FullName: "A", Role: "system_admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), &tt.req); !apperr.Is(err, apperr.KindInvalid) {
				t.Errorf("got %v, want invalid", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	req := RegisterRequest{Email: "dup@example.com", Password: "password123", FullName: "A", Role: "patient"}
	if _, err := svc.Register(context.Background(), &req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), &req); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("duplicate email: got %v, want invalid", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "login@example.com", Password: "password123", FullName: "L", Role: "patient",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tok, err := svc.Login(context.Background(), &LoginRequest{Email: "login@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Errorf("bad token response: %+v", tok)
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "login@example.com", Password: "wrong"}); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("wrong password: got %v, want unauthenticated", err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "ghost@example.com", Password: "password123"}); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("unknown email: got %v, want unauthenticated", err)
	}
}

func TestLoginDeactivated(t *testing.T) {
	svc, repo := newTestService()

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "off@example.com", Password: "password123", FullName: "O", Role: "patient",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	repo.users[u.ID].Active = false

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "off@example.com", Password: "password123"}); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("deactivated login: got %v, want unauthenticated", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "cp@example.com", Password: "password123", FullName: "C", Role: "patient",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.ChangePassword(context.Background(), u.ID, &ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "newpassword1",
	})
	if !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("wrong current password: got %v, want unauthenticated", err)
	}

	err = svc.ChangePassword(context.Background(), u.ID, &ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: "newpassword1",
	})
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "cp@example.com", Password: "newpassword1"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "cp@example.com", Password: "password123"}); !apperr.Is(err, apperr.KindUnauthenticated) {
		t.Errorf("old password still accepted: %v", err)
	}
}

func TestResolveByEmail(t *testing.T) {
	svc, repo := newTestService()

	u, err := svc.Register(context.Background(), &RegisterRequest{
		Email: "res@example.com", Password: "password123", FullName: "R", Role: "patient",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ident, err := svc.ResolveByEmail(context.Background(), "res@example.com")
	if err != nil {
		t.Fatalf("ResolveByEmail: %v", err)
	}
	if ident.UserID != u.ID {
		t.Errorf("user id mismatch")
	}
	if ident.PatientID == nil {
		t.Error("patient profile id not resolved")
	}
	if ident.DoctorID != nil {
		t.Error("unexpected doctor profile id")
	}

	// The stored role wins even if the account was re-roled after issuance.
	repo.users[u.ID].Role = auth.RoleLabTechnician
	ident, err = svc.ResolveByEmail(context.Background(), "res@example.com")
	if err != nil {
		t.Fatalf("ResolveByEmail: %v", err)
	}
	if ident.Role != auth.RoleLabTechnician {
		t.Errorf("role = %s, want lab_technician", ident.Role)
	}

	if _, err := svc.ResolveByEmail(context.Background(), "nobody@example.com"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown email: got %v, want not found", err)
	}
}
