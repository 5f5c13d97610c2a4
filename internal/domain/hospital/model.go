package hospital

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the hospital onboarding lifecycle. A decision is final:
// approved and rejected never transition again.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

type Hospital struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Address         string         `json:"address,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	Email           string         `json:"email,omitempty"`
	Status          ApprovalStatus `json:"status"`
	RegisteredByID  uuid.UUID      `json:"registered_by_id"`
	DecidedByID     *uuid.UUID     `json:"decided_by_id,omitempty"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Department is an organizational unit inside an approved hospital.
type Department struct {
	ID         uuid.UUID `json:"id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type CreateDepartmentRequest struct {
	Name string `json:"name"`
}
