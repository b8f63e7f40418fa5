// Package model defines the core domain types for the academy events system.
package model

import (
	"time"
)

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

// EventType classifies an event.
type EventType string

const (
	EventTrial       EventType = "trial"
	EventTournament  EventType = "tournament"
	EventWorkshop    EventType = "workshop"
	EventCamp        EventType = "camp"
	EventCompetition EventType = "competition"
	EventOpenDay     EventType = "open_day"
	EventOther       EventType = "other"
)

// Event is an academy event, trial or camp that visitors may register for.
type Event struct {
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Slug                 string      `json:"slug"`
	EventType            EventType   `json:"event_type"`
	ShortDescription     string      `json:"short_description"`
	Description          string      `json:"description"`
	Venue                string      `json:"venue"`
	VenueAddress         string      `json:"venue_address"`
	StartDate            Date        `json:"start_date"`
	EndDate              *Date       `json:"end_date,omitempty"`
	RegistrationRequired bool        `json:"registration_required"`
	RegistrationDeadline *time.Time  `json:"registration_deadline,omitempty"`
	MaxParticipants      *int        `json:"max_participants,omitempty"`
	RegistrationFee      float64     `json:"registration_fee"`
	IsFree               bool        `json:"is_free"`
	Status               EventStatus `json:"status"`
	IsFeatured           bool        `json:"is_featured"`
	RegistrationCount    int         `json:"registration_count"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// CheckAdmission evaluates the event-level admission rules in order against
// count existing registrations at instant now. The first failing rule wins.
func (e *Event) CheckAdmission(now time.Time, count int) error {
	if !e.RegistrationRequired {
		return ErrRegistrationNotRequired
	}
	if e.Status != EventUpcoming && e.Status != EventOngoing {
		return ErrEventNotOpen
	}
	if e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline) {
		return ErrDeadlinePassed
	}
	if limit, ok := e.limit(); ok && count >= limit {
		return ErrEventFull
	}
	return nil
}

// IsRegistrationOpen reports whether a submission made now would pass the
// event-level checks.
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	return e.CheckAdmission(now, e.RegistrationCount) == nil
}

// AvailableSlots returns the remaining capacity, or nil when unlimited.
func (e *Event) AvailableSlots() *int {
	limit, ok := e.limit()
	if !ok {
		return nil
	}
	n := max(0, limit-e.RegistrationCount)
	return &n
}

// limit returns the participant cap. An unset or zero MaxParticipants means
// the event is unlimited.
func (e *Event) limit() (int, bool) {
	if e.MaxParticipants == nil || *e.MaxParticipants == 0 {
		return 0, false
	}
	return *e.MaxParticipants, true
}

// EventInput is the admin payload for creating or replacing an event.
type EventInput struct {
	Title                string      `json:"title" validate:"required,max=200"`
	Slug                 string      `json:"slug" validate:"omitempty,max=220"`
	EventType            EventType   `json:"event_type" validate:"required,oneof=trial tournament workshop camp competition open_day other"`
	ShortDescription     string      `json:"short_description" validate:"max=300"`
	Description          string      `json:"description"`
	Venue                string      `json:"venue" validate:"required,max=200"`
	VenueAddress         string      `json:"venue_address"`
	StartDate            Date        `json:"start_date"`
	EndDate              *Date       `json:"end_date"`
	RegistrationRequired bool        `json:"registration_required"`
	RegistrationDeadline *time.Time  `json:"registration_deadline"`
	MaxParticipants      *int        `json:"max_participants" validate:"omitempty,gte=0"`
	RegistrationFee      float64     `json:"registration_fee" validate:"gte=0"`
	IsFree               bool        `json:"is_free"`
	Status               EventStatus `json:"status" validate:"omitempty,oneof=draft upcoming ongoing completed cancelled"`
	IsFeatured           bool        `json:"is_featured"`
}

// EventDetail is the public view of one event with its registration form.
type EventDetail struct {
	Event
	AvailableSlots *int              `json:"available_slots"`
	CanRegister    bool              `json:"can_register"`
	FormFields     []FieldDescriptor `json:"form_fields"`
}
