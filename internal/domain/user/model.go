package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// User is a login account. Role-specific profile data lives in the patient
// and doctor packages; HospitalID ties hospital-affiliated staff to their
// hospital.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	Role         auth.Role  `json:"role"`
	Active       bool       `json:"is_active"`
	HospitalID   *uuid.UUID `json:"hospital_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RegisterRequest carries the signup payload. Patient profile fields are
// only honored for the patient role; doctor fields for the doctor role.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`

	// patient profile
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	BloodGroup  string `json:"blood_group,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`

	// doctor profile
	Specialization string     `json:"specialization,omitempty"`
	LicenseNumber  string     `json:"license_number,omitempty"`
	HospitalID     *uuid.UUID `json:"hospital_id,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
