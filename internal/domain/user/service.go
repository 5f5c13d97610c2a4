package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

const uniqueViolation = "23505"

// PatientProfile is the slice of the signup payload handed to the patient
// package when a patient registers.
type PatientProfile struct {
	DateOfBirth string
	Gender      string
	BloodGroup  string
	Phone       string
	Address     string
}

// DoctorProfile is the slice of the signup payload handed to the doctor
// package when a doctor registers.
type DoctorProfile struct {
	Specialization string
	LicenseNumber  string
	HospitalID     *uuid.UUID
}

// PatientRegistrar creates the patient profile row for a new patient user.
type PatientRegistrar interface {
	CreateProfileForUser(ctx context.Context, userID uuid.UUID, p PatientProfile) error
}

// DoctorRegistrar creates the doctor profile row for a new doctor user.
type DoctorRegistrar interface {
	CreateProfileForUser(ctx context.Context, userID uuid.UUID, d DoctorProfile) error
}

// TxRunner runs fn inside a transaction carried on the context. Profile rows
// are created in the same transaction as the user row so a half-registered
// account can never exist.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	issuer   *auth.TokenIssuer
	patients PatientRegistrar
	doctors  DoctorRegistrar
	runTx    TxRunner
}

func NewService(repo Repository, issuer *auth.TokenIssuer, patients PatientRegistrar, doctors DoctorRegistrar, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, issuer: issuer, patients: patients, doctors: doctors, runTx: runTx}
}

// Register creates a login account and, for patient and doctor roles, the
// matching profile row in the same transaction. System administrators are
// provisioned out of band, never through signup.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Invalid("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Invalid("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, apperr.Invalid("full_name is required")
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if role == auth.RoleSystemAdmin {
		return nil, apperr.Invalid("role %s cannot self-register", role)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		Active:       true,
		HospitalID:   req.HospitalID,
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if createErr := s.repo.Create(ctx, u); createErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(createErr, &pgErr) && pgErr.Code == uniqueViolation {
				return apperr.Invalid("email already registered")
			}
			return apperr.Internal(createErr, "creating user")
		}
		switch role {
		case auth.RolePatient:
			if s.patients == nil {
				return nil
			}
			return s.patients.CreateProfileForUser(ctx, u.ID, PatientProfile{
				DateOfBirth: req.DateOfBirth,
				Gender:      req.Gender,
				BloodGroup:  req.BloodGroup,
				Phone:       req.Phone,
				Address:     req.Address,
			})
		case auth.RoleDoctor:
			if s.doctors == nil {
				return nil
			}
			return s.doctors.CreateProfileForUser(ctx, u.ID, DoctorProfile{
				Specialization: req.Specialization,
				LicenseNumber:  req.LicenseNumber,
				HospitalID:     req.HospitalID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed token. The failure message
// never distinguishes an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Unauthenticated("incorrect email or password")
		}
		return nil, apperr.Internal(err, "fetching user")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, apperr.Unauthenticated("incorrect email or password")
	}
	if !u.Active {
		return nil, apperr.Unauthenticated("account is deactivated")
	}

	token, err := s.issuer.Issue(u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if len(req.NewPassword) < 8 {
		return apperr.Invalid("password must be at least 8 characters")
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err, "fetching user")
	}
	if !auth.CheckPassword(u.PasswordHash, req.CurrentPassword) {
		return apperr.Unauthenticated("current password is incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Internal(err, "updating password")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "fetching user")
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" {
		if _, err := auth.ParseRole(role); err != nil {
			return nil, 0, err
		}
		return s.repo.ListByRole(ctx, role, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return apperr.Internal(err, "updating user")
	}
	return nil
}

func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	counts, err := s.repo.CountByRole(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "counting users")
	}
	return counts, nil
}

// ResolveByEmail implements auth.UserResolver: it maps a verified token
// subject to the account's current role, active flag and profile ownership.
// The stored role always wins over whatever the token claimed.
func (s *Service) ResolveByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "resolving user")
	}
	patientID, doctorID, err := s.repo.ProfileIDs(ctx, u.ID)
	if err != nil {
		return nil, apperr.Internal(err, "resolving profiles")
	}
	return &auth.Identity{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       u.Role,
		Active:     u.Active,
		PatientID:  patientID,
		DoctorID:   doctorID,
		HospitalID: u.HospitalID,
	}, nil
}
