package model

import (
	"errors"
	"strings"
)

// Admission rejections. Each is final for the current event state and is not
// something the visitor can fix by editing the form.
var (
	ErrRegistrationNotRequired = errors.New("registration is not required for this event")
	ErrEventNotOpen            = errors.New("event is not open for registration")
	ErrDeadlinePassed          = errors.New("registration deadline has passed")
	ErrEventFull               = errors.New("event is fully booked")
)

// AdmissionReason returns a stable code for an admission rejection, or ""
// when err is not one.
func AdmissionReason(err error) string {
	switch {
	case errors.Is(err, ErrRegistrationNotRequired):
		return "registration_not_required"
	case errors.Is(err, ErrEventNotOpen):
		return "event_not_open"
	case errors.Is(err, ErrDeadlinePassed):
		return "deadline_passed"
	case errors.Is(err, ErrEventFull):
		return "event_full"
	}
	return ""
}

// FieldError is a single per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field-level failure of one payload.
type ValidationError struct {
	Errors []FieldError
}

// Add records a failure for field.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Err returns e when it holds failures and nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Has reports whether field has at least one failure.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
