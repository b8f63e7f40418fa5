package model

import "time"

// RegistrationStatus tracks an accepted registration after admission.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
	RegistrationAttended  RegistrationStatus = "attended"
)

// Registration is one admitted submission. FormData is keyed by field name
// and holds values already typed by the form compiler.
type Registration struct {
	ID                 string             `json:"id"`
	EventID            string             `json:"event_id"`
	RegistrationNumber string             `json:"registration_number"`
	ParticipantName    string             `json:"participant_name"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone"`
	FormData           map[string]any     `json:"form_data"`
	Status             RegistrationStatus `json:"status"`
	AdminNotes         string             `json:"admin_notes"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// RegistrationUpdate is the admin payload for changing status or notes.
// Nil fields are left untouched.
type RegistrationUpdate struct {
	Status     *RegistrationStatus `json:"status" validate:"omitempty,oneof=pending confirmed cancelled attended"`
	AdminNotes *string             `json:"admin_notes"`
}

// FileRef is the opaque reference stored for an uploaded file.
type FileRef struct {
	Ref      string `json:"ref"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Reason string       `json:"reason,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
}
