package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the closed appointment lifecycle. Scheduled is the only state
// that can transition; completed, cancelled and no_show are terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true, StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}

type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateRequest struct {
	PatientID   *uuid.UUID `json:"patient_id,omitempty"` // ignored for patient callers
	DoctorID    uuid.UUID  `json:"doctor_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Reason      string     `json:"reason,omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// UpdateRequest edits a scheduled appointment; nil fields keep their value.
type UpdateRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}
