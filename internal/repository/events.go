package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

// eventColumns is shared by every event SELECT; registration_count is derived.
const eventColumns = `
	e.id, e.title, e.slug, e.event_type, e.short_description, e.description,
	e.venue, e.venue_address, e.start_date, e.end_date,
	e.registration_required, e.registration_deadline, e.max_participants,
	e.registration_fee, e.is_free, e.status, e.is_featured,
	(SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id),
	e.created_at, e.updated_at`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		e        model.Event
		start    time.Time
		end      *time.Time
		maxParts *int32
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.Slug, &e.EventType, &e.ShortDescription, &e.Description,
		&e.Venue, &e.VenueAddress, &start, &end,
		&e.RegistrationRequired, &e.RegistrationDeadline, &maxParts,
		&e.RegistrationFee, &e.IsFree, &e.Status, &e.IsFeatured,
		&e.RegistrationCount,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.StartDate = model.Date{Time: start}
	if end != nil {
		e.EndDate = &model.Date{Time: *end}
	}
	if maxParts != nil {
		n := int(*maxParts)
		e.MaxParticipants = &n
	}
	return &e, nil
}

func endDate(e *model.Event) *time.Time {
	if e.EndDate == nil {
		return nil
	}
	return &e.EndDate.Time
}

// Create inserts a new event. The caller assigns ID, slug and timestamps.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (
			id, title, slug, event_type, short_description, description,
			venue, venue_address, start_date, end_date,
			registration_required, registration_deadline, max_participants,
			registration_fee, is_free, status, is_featured, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		e.ID, e.Title, e.Slug, e.EventType, e.ShortDescription, e.Description,
		e.Venue, e.VenueAddress, e.StartDate.Time, endDate(e),
		e.RegistrationRequired, e.RegistrationDeadline, e.MaxParticipants,
		e.RegistrationFee, e.IsFree, e.Status, e.IsFeatured, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", classify(err))
	}
	return nil
}

// Update replaces every editable column of an existing event.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	if !validID(e.ID) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events SET
			title = $2, slug = $3, event_type = $4, short_description = $5, description = $6,
			venue = $7, venue_address = $8, start_date = $9, end_date = $10,
			registration_required = $11, registration_deadline = $12, max_participants = $13,
			registration_fee = $14, is_free = $15, status = $16, is_featured = $17, updated_at = $18
		 WHERE id = $1`,
		e.ID, e.Title, e.Slug, e.EventType, e.ShortDescription, e.Description,
		e.Venue, e.VenueAddress, e.StartDate.Time, endDate(e),
		e.RegistrationRequired, e.RegistrationDeadline, e.MaxParticipants,
		e.RegistrationFee, e.IsFree, e.Status, e.IsFeatured, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event; its fields and registrations cascade.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, err
}

// GetBySlug returns a single event by slug or ErrNotFound.
func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.slug = $1`, slug))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return e, err
}

// SlugTaken reports whether slug belongs to an event other than exceptID.
func (r *EventRepository) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE slug = $1 AND id::text <> $2)`,
		slug, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return taken, nil
}

// List returns events matching f ordered by start date.
func (r *EventRepository) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("e.status = ANY($%d)", len(args)))
	}
	if f.EventType != "" {
		args = append(args, string(f.EventType))
		where = append(where, fmt.Sprintf("e.event_type = $%d", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events e`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Ascending {
		query += ` ORDER BY e.start_date ASC, e.created_at ASC`
	} else {
		query += ` ORDER BY e.start_date DESC, e.created_at DESC`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
