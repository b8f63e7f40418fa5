package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

const registrationColumns = `
	id, event_id, registration_number, participant_name, email, phone,
	form_data, status, admin_notes, created_at, updated_at`

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db  *pgxpool.Pool
	log zerolog.Logger
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool, log zerolog.Logger) *RegistrationRepository {
	return &RegistrationRepository{db: db, log: log.With().Str("component", "registration_repo").Logger()}
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.RegistrationNumber, &reg.ParticipantName, &reg.Email, &reg.Phone,
		&reg.FormData, &reg.Status, &reg.AdminNotes, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// Admit persists reg if check still passes against live state, assigning
// its registration number. Everything happens in one transaction:
//
//  1. the event row is locked FOR UPDATE, serialising admissions per event
//     so two requests cannot both take the last slot;
//  2. a transaction-scoped advisory lock on the day prefix serialises
//     number allocation across all events;
//  3. check runs against the locked event and its current count;
//  4. the next sequence for the day is read and the row inserted.
//
// Locks are always taken in that order, so admissions cannot deadlock each
// other. Serialization failures and unique violations are reported as
// ErrConflict for the caller to retry. Nothing is written unless the
// commit succeeds.
func (r *RegistrationRepository) Admit(ctx context.Context, reg *model.Registration, check AdmitCheck) (err error) {
	if !validID(reg.EventID) {
		return ErrNotFound
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, reg.EventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", classify(err))
	}

	// A new statement takes a new snapshot, so the event settings and the
	// registration count below include every admission committed before the
	// lock was granted.
	event, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, reg.EventID))
	if err != nil {
		return fmt.Errorf("read locked event: %w", classify(err))
	}

	prefix := RegistrationPrefix(reg.CreatedAt)
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix); err != nil {
		return fmt.Errorf("lock registration sequence: %w", classify(err))
	}

	if err = check(event, event.RegistrationCount); err != nil {
		return err
	}

	var last string
	err = tx.QueryRow(ctx,
		`SELECT registration_number FROM event_registrations
		 WHERE registration_number LIKE $1 || '-%'
		 ORDER BY length(registration_number) DESC, registration_number DESC
		 LIMIT 1`,
		prefix,
	).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("read last registration number: %w", classify(err))
	}
	if reg.RegistrationNumber, err = NextRegistrationNumber(prefix, last); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO event_registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		reg.ID, reg.EventID, reg.RegistrationNumber, reg.ParticipantName, reg.Email, reg.Phone,
		reg.FormData, reg.Status, reg.AdminNotes, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrConflict) {
			r.log.Debug().Str("registration_number", reg.RegistrationNumber).Msg("registration number collided")
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

// ListByEvent returns all registrations for an event, newest first.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	if !validID(eventID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+`
		 FROM event_registrations
		 WHERE event_id = $1
		 ORDER BY created_at DESC, registration_number DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// GetByID returns a single registration or ErrNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM event_registrations WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, err
}

// Update changes status and/or admin notes. Form data is never touched.
func (r *RegistrationRepository) Update(ctx context.Context, id string, upd model.RegistrationUpdate) (*model.Registration, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	reg, err := scanRegistration(r.db.QueryRow(ctx,
		`UPDATE event_registrations SET
			status = COALESCE($2, status),
			admin_notes = COALESCE($3, admin_notes),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+registrationColumns,
		id, upd.Status, upd.AdminNotes,
	))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return reg, err
}

// Delete removes a registration.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM event_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
