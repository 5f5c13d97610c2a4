package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the medical profile attached to a patient user account.
type Patient struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	BloodGroup       string     `json:"blood_group,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Address          string     `json:"address,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	MedicalHistory   string     `json:"medical_history,omitempty"`
	Allergies        string     `json:"allergies,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UpdateRequest carries the mutable profile fields.
type UpdateRequest struct {
	DateOfBirth      *time.Time `json:"date_of_birth,omitempty"`
	Gender           *string    `json:"gender,omitempty"`
	BloodGroup       *string    `json:"blood_group,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	Address          *string    `json:"address,omitempty"`
	EmergencyContact *string    `json:"emergency_contact,omitempty"`
	MedicalHistory   *string    `json:"medical_history,omitempty"`
	Allergies        *string    `json:"allergies,omitempty"`
}
