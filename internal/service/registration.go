package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/form"
	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/notify"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
)

// Placeholders stored when the form has no recognisable contact field.
const (
	PlaceholderName  = "Participant"
	PlaceholderEmail = "no-email@example.com"
)

// RegistrationOptions tunes the admission engine.
type RegistrationOptions struct {
	// MaxAttempts bounds how often a conflicting commit is retried.
	MaxAttempts int
	// Location fixes the calendar day used in registration numbers.
	Location *time.Location
}

// RegistrationService admits and administers event registrations.
type RegistrationService struct {
	events        EventStore
	fields        FieldStore
	registrations RegistrationStore
	notifier      notify.Notifier
	now           Clock
	opts          RegistrationOptions
	log           zerolog.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	events EventStore,
	fields FieldStore,
	registrations RegistrationStore,
	notifier notify.Notifier,
	now Clock,
	opts RegistrationOptions,
	log zerolog.Logger,
) *RegistrationService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &RegistrationService{
		events:        events,
		fields:        fields,
		registrations: registrations,
		notifier:      notifier,
		now:           now,
		opts:          opts,
		log:           log.With().Str("component", "registration_service").Logger(),
	}
}

// Submit runs the admission engine for one raw submission.
//
// The event-level rules are checked first, in order, against the current
// event state; only then is the form schema loaded and the input validated.
// The commit re-checks the event-level rules under lock. A commit that loses
// a race is retried from the top; when every attempt conflicts the caller
// gets repository.ErrConflict and may resubmit.
func (s *RegistrationService) Submit(ctx context.Context, eventID string, in form.Input) (*model.Registration, error) {
	for attempt := 1; ; attempt++ {
		event, reg, err := s.admitOnce(ctx, eventID, in)
		if err == nil {
			s.log.Info().
				Str("event_id", eventID).
				Str("registration_number", reg.RegistrationNumber).
				Int("attempt", attempt).
				Msg("registration admitted")
			s.announce(ctx, event, reg)
			return reg, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		if attempt >= s.opts.MaxAttempts {
			s.log.Warn().Err(err).Str("event_id", eventID).Int("attempts", attempt).Msg("registration conflict, giving up")
			return nil, err
		}
		s.log.Debug().Err(err).Str("event_id", eventID).Int("attempt", attempt).Msg("registration conflict, retrying")
	}
}

func (s *RegistrationService) admitOnce(ctx context.Context, eventID string, in form.Input) (*model.Event, *model.Registration, error) {
	event, err := eventExists(ctx, s.events, eventID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	if err := event.CheckAdmission(now, event.RegistrationCount); err != nil {
		return nil, nil, err
	}

	fields, err := s.fields.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("load form schema: %w", err)
	}
	data, err := form.Compile(fields).Validate(in)
	if err != nil {
		return nil, nil, err
	}

	name, email, phone := extractContact(data)
	created := now.In(s.opts.Location)
	reg := &model.Registration{
		ID:              uuid.NewString(),
		EventID:         eventID,
		ParticipantName: name,
		Email:           email,
		Phone:           phone,
		FormData:        data,
		Status:          model.RegistrationPending,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	err = s.registrations.Admit(ctx, reg, func(locked *model.Event, count int) error {
		return locked.CheckAdmission(now, count)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrConflict) ||
			model.AdmissionReason(err) != "" {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("admit registration: %w", err)
	}
	return event, reg, nil
}

// announce publishes the registration. Failures are logged, never returned:
// the registration is already committed.
func (s *RegistrationService) announce(ctx context.Context, event *model.Event, reg *model.Registration) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.RegistrationCreated(ctx, notify.NewRegistrationCreated(event, reg)); err != nil {
		s.log.Warn().Err(err).Str("registration_number", reg.RegistrationNumber).Msg("failed to publish registration")
	}
}

// extractContact pulls the participant's contact details from well-known
// field names, falling back to placeholders.
func extractContact(data map[string]any) (name, email, phone string) {
	name = firstString(data, "full_name", "name")
	if name == "" {
		name = PlaceholderName
	}
	email = firstString(data, "email")
	if email == "" {
		email = PlaceholderEmail
	}
	phone = firstString(data, "phone", "phone_number")
	return name, email, phone
}

func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := data[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ListRegistrations returns all registrations for an event, newest first.
func (s *RegistrationService) ListRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	if _, err := eventExists(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListByEvent(ctx, eventID)
}

// GetRegistration returns a single registration.
func (s *RegistrationService) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	return s.registrations.GetByID(ctx, id)
}

// UpdateRegistration changes status and/or admin notes.
func (s *RegistrationService) UpdateRegistration(ctx context.Context, id string, upd model.RegistrationUpdate) (*model.Registration, error) {
	if err := validateStruct(ctx, upd); err != nil {
		return nil, err
	}
	reg, err := s.registrations.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("registration_number", reg.RegistrationNumber).Str("status", string(reg.Status)).Msg("registration updated")
	return reg, nil
}

// DeleteRegistration removes a registration.
func (s *RegistrationService) DeleteRegistration(ctx context.Context, id string) error {
	if err := s.registrations.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("registration_id", id).Msg("registration deleted")
	return nil
}
