package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription records a medication order. The prescriber, patient, and
// issue timestamp are fixed at creation; dosing details may be corrected by
// the issuing doctor afterwards.
type Prescription struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Medication    string     `json:"medication"`
	Dosage        string     `json:"dosage"`
	Frequency     string     `json:"frequency,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
	IssuedAt      time.Time  `json:"issued_at"`
}

// UpdateRequest covers the correctable dosing fields; nil leaves a field
// unchanged. Patient, prescriber, and issue timestamp are not editable.
type UpdateRequest struct {
	Dosage       *string `json:"dosage,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	Duration     *string `json:"duration,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
}

type CreateRequest struct {
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Medication    string     `json:"medication"`
	Dosage        string     `json:"dosage"`
	Frequency     string     `json:"frequency,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
}
