package patient

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hms/hms/internal/domain/user"
	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	byUser   map[uuid.UUID]uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: map[uuid.UUID]*Patient{}, byUser: map[uuid.UUID]uuid.UUID{}}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	m.byUser[p.UserID] = p.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*Patient, error) {
	id, ok := m.byUser[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m.patients[id], nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return len(m.patients), nil
}

func seedPatient(t *testing.T, svc *Service) *Patient {
	t.Helper()
	userID := uuid.New()
	if err := svc.CreateProfileForUser(context.Background(), userID, user.PatientProfile{
		Gender: "female", BloodGroup: "O+",
	}); err != nil {
		t.Fatalf("CreateProfileForUser: %v", err)
	}
	p, err := svc.repo.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	return p
}

func TestCreateProfileForUser(t *testing.T) {
	svc := NewService(newMockRepo())

	p := seedPatient(t, svc)
	if p.Gender != "female" || p.BloodGroup != "O+" {
		t.Errorf("profile fields not stored: %+v", p)
	}
}

func TestCreateProfileValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.CreateProfileForUser(context.Background(), uuid.New(), user.PatientProfile{Gender: "robot"})
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("bad gender: got %v, want invalid", err)
	}
	err = svc.CreateProfileForUser(context.Background(), uuid.New(), user.PatientProfile{BloodGroup: "Z+"})
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("bad blood group: got %v, want invalid", err)
	}
	err = svc.CreateProfileForUser(context.Background(), uuid.New(), user.PatientProfile{DateOfBirth: "01/02/2000"})
	if !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("bad dob: got %v, want invalid", err)
	}
}

func TestGetOwnership(t *testing.T) {
	svc := NewService(newMockRepo())
	p := seedPatient(t, svc)
	other := seedPatient(t, svc)

	owner := &auth.Identity{UserID: p.UserID, Role: auth.RolePatient, PatientID: &p.ID}
	if _, err := svc.Get(context.Background(), owner, p.ID); err != nil {
		t.Errorf("owner denied own record: %v", err)
	}
	if _, err := svc.Get(context.Background(), owner, other.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("cross-patient read: got %v, want forbidden", err)
	}

	doc := &auth.Identity{Role: auth.RoleDoctor}
	if _, err := svc.Get(context.Background(), doc, other.ID); err != nil {
		t.Errorf("doctor denied patient record: %v", err)
	}

	admin := &auth.Identity{Role: auth.RoleSystemAdmin}
	if _, err := svc.Get(context.Background(), admin, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing record: got %v, want not found", err)
	}
}

func TestUpdate(t *testing.T) {
	svc := NewService(newMockRepo())
	p := seedPatient(t, svc)

	phone := "555-0100"
	admin := &auth.Identity{Role: auth.RoleSystemAdmin}
	updated, err := svc.Update(context.Background(), admin, p.ID, &UpdateRequest{Phone: &phone})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Phone != "555-0100" {
		t.Errorf("phone = %q", updated.Phone)
	}
	if updated.BloodGroup != "O+" {
		t.Errorf("unset field changed: blood group = %q", updated.BloodGroup)
	}

	bad := "purple"
	if _, err := svc.Update(context.Background(), admin, p.ID, &UpdateRequest{Gender: &bad}); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("bad gender: got %v, want invalid", err)
	}
}

func TestAppendMedicalHistory(t *testing.T) {
	svc := NewService(newMockRepo())
	p := seedPatient(t, svc)

	doc := &auth.Identity{Role: auth.RoleDoctor}
	updated, err := svc.AppendMedicalHistory(context.Background(), doc, p.ID, "hypertension diagnosed")
	if err != nil {
		t.Fatalf("AppendMedicalHistory: %v", err)
	}
	if !strings.Contains(updated.MedicalHistory, "hypertension diagnosed") {
		t.Errorf("history = %q", updated.MedicalHistory)
	}

	updated, err = svc.AppendMedicalHistory(context.Background(), doc, p.ID, "started lisinopril")
	if err != nil {
		t.Fatalf("AppendMedicalHistory second entry: %v", err)
	}
	if !strings.Contains(updated.MedicalHistory, "hypertension diagnosed") ||
		!strings.Contains(updated.MedicalHistory, "started lisinopril") {
		t.Errorf("earlier entry lost: %q", updated.MedicalHistory)
	}

	self := &auth.Identity{UserID: p.UserID, Role: auth.RolePatient, PatientID: &p.ID}
	if _, err := svc.AppendMedicalHistory(context.Background(), self, p.ID, "feeling fine"); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("patient writing own history: got %v, want forbidden", err)
	}

	if _, err := svc.AppendMedicalHistory(context.Background(), doc, p.ID, "  "); !apperr.Is(err, apperr.KindInvalid) {
		t.Errorf("blank note: got %v, want invalid", err)
	}
}

func TestGetOwn(t *testing.T) {
	svc := NewService(newMockRepo())
	p := seedPatient(t, svc)

	ident := &auth.Identity{UserID: p.UserID, Role: auth.RolePatient, PatientID: &p.ID}
	got, err := svc.GetOwn(context.Background(), ident)
	if err != nil {
		t.Fatalf("GetOwn: %v", err)
	}
	if got.ID != p.ID {
		t.Error("wrong profile returned")
	}

	stranger := &auth.Identity{UserID: uuid.New(), Role: auth.RolePatient}
	if _, err := svc.GetOwn(context.Background(), stranger); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("profileless account: got %v, want not found", err)
	}
}
