package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is the professional profile attached to a doctor user account.
type Doctor struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Specialization  string     `json:"specialization,omitempty"`
	LicenseNumber   string     `json:"license_number,omitempty"`
	HospitalID      *uuid.UUID `json:"hospital_id,omitempty"`
	ConsultationFee float64    `json:"consultation_fee"`
	Available       bool       `json:"is_available"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type UpdateRequest struct {
	Specialization  *string    `json:"specialization,omitempty"`
	LicenseNumber   *string    `json:"license_number,omitempty"`
	HospitalID      *uuid.UUID `json:"hospital_id,omitempty"`
	ConsultationFee *float64   `json:"consultation_fee,omitempty"`
	Available       *bool      `json:"is_available,omitempty"`
}
