package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
	"github.com/Shivanand-hulikatti/academy-events/internal/slug"
)

// EventService manages the event catalogue.
type EventService struct {
	events EventStore
	fields FieldStore
	now    Clock
	log    zerolog.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, fields FieldStore, now Clock, log zerolog.Logger) *EventService {
	return &EventService{
		events: events,
		fields: fields,
		now:    now,
		log:    log.With().Str("component", "event_service").Logger(),
	}
}

// CreateEvent validates in, derives a unique slug and stores a new event.
func (s *EventService) CreateEvent(ctx context.Context, in model.EventInput) (*model.Event, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e := &model.Event{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	applyInput(e, in)

	var err error
	if e.Slug, err = s.pickSlug(ctx, in, "", ""); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, slugTakenError()
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info().Str("event_id", e.ID).Str("slug", e.Slug).Msg("event created")
	return e, nil
}

// UpdateEvent replaces the editable attributes of an event. A blank slug
// keeps the current one.
func (s *EventService) UpdateEvent(ctx context.Context, id string, in model.EventInput) (*model.Event, error) {
	if err := s.checkInput(ctx, &in); err != nil {
		return nil, err
	}
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current := e.Slug
	applyInput(e, in)
	if e.Slug, err = s.pickSlug(ctx, in, id, current); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now().UTC()

	if err := s.events.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return nil, slugTakenError()
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.log.Info().Str("event_id", e.ID).Msg("event updated")
	return e, nil
}

// DeleteEvent removes an event together with its form and registrations.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return s.events.GetByID(ctx, id)
}

// GetBySlug returns an event by slug regardless of status.
func (s *EventService) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return s.events.GetBySlug(ctx, slug)
}

// ListEvents returns every event, newest start date first.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx, repository.EventFilter{})
}

// ListOpenEvents returns upcoming and ongoing events by start date,
// optionally restricted to one type.
func (s *EventService) ListOpenEvents(ctx context.Context, eventType model.EventType) ([]model.Event, error) {
	return s.events.List(ctx, repository.EventFilter{
		Statuses:  []model.EventStatus{model.EventUpcoming, model.EventOngoing},
		EventType: eventType,
		Ascending: true,
	})
}

// GetPublicEvent returns the public detail of a non-draft event with its
// registration form.
func (s *EventService) GetPublicEvent(ctx context.Context, slug string) (*model.EventDetail, error) {
	e, err := s.PublicEvent(ctx, slug)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields.ListByEvent(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	if fields == nil {
		fields = []model.FieldDescriptor{}
	}
	return &model.EventDetail{
		Event:          *e,
		AvailableSlots: e.AvailableSlots(),
		CanRegister:    e.IsRegistrationOpen(s.now()),
		FormFields:     fields,
	}, nil
}

// PublicEvent resolves slug to an event visible on the public site.
// Drafts are reported as not found.
func (s *EventService) PublicEvent(ctx context.Context, slug string) (*model.Event, error) {
	e, err := s.events.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if e.Status == model.EventDraft {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

// checkInput normalises in and validates it.
func (s *EventService) checkInput(ctx context.Context, in *model.EventInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Venue = strings.TrimSpace(in.Venue)
	in.Slug = slug.URL(in.Slug)
	if in.Status == "" {
		in.Status = model.EventDraft
	}

	verr := &model.ValidationError{}
	if err := validateStruct(ctx, in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if in.StartDate.IsZero() {
		verr.Add("start_date", "This field is required.")
	}
	if in.EndDate != nil && !in.StartDate.IsZero() && in.EndDate.Before(in.StartDate.Time) {
		verr.Add("end_date", "End date cannot be before start date.")
	}
	if in.RegistrationDeadline != nil {
		d := in.RegistrationDeadline.UTC()
		in.RegistrationDeadline = &d
	}
	return verr.Err()
}

// pickSlug returns the slug for an event. An explicit slug must be free;
// a derived one gets a numeric suffix until it is.
func (s *EventService) pickSlug(ctx context.Context, in model.EventInput, id, current string) (string, error) {
	taken := func(ctx context.Context, candidate string) (bool, error) {
		return s.events.SlugTaken(ctx, candidate, id)
	}
	if in.Slug != "" {
		used, err := taken(ctx, in.Slug)
		if err != nil {
			return "", err
		}
		if used {
			return "", slugTakenError()
		}
		return in.Slug, nil
	}
	if current != "" {
		return current, nil
	}
	return slug.Unique(ctx, slug.URL(in.Title), taken)
}

func slugTakenError() error {
	verr := &model.ValidationError{}
	verr.Add("slug", "Event with this slug already exists.")
	return verr
}

func applyInput(e *model.Event, in model.EventInput) {
	e.Title = in.Title
	e.EventType = in.EventType
	e.ShortDescription = strings.TrimSpace(in.ShortDescription)
	e.Description = in.Description
	e.Venue = in.Venue
	e.VenueAddress = strings.TrimSpace(in.VenueAddress)
	e.StartDate = in.StartDate
	e.EndDate = in.EndDate
	e.RegistrationRequired = in.RegistrationRequired
	e.RegistrationDeadline = in.RegistrationDeadline
	e.MaxParticipants = in.MaxParticipants
	e.RegistrationFee = in.RegistrationFee
	e.IsFree = in.IsFree
	e.Status = in.Status
	e.IsFeatured = in.IsFeatured
}

// eventExists returns ErrNotFound unless id names an event.
func eventExists(ctx context.Context, events EventStore, id string) (*model.Event, error) {
	e, err := events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
