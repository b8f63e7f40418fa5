package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

// FieldRepository handles persistence for registration form descriptors.
type FieldRepository struct {
	db *pgxpool.Pool
}

// NewFieldRepository constructs a FieldRepository.
func NewFieldRepository(db *pgxpool.Pool) *FieldRepository {
	return &FieldRepository{db: db}
}

// ListByEvent returns the event's descriptors ordered by (display_order, id).
func (r *FieldRepository) ListByEvent(ctx context.Context, eventID string) ([]model.FieldDescriptor, error) {
	if !validID(eventID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, event_id, field_type, label, placeholder, help_text, is_required,
		        display_order, options, min_length, max_length, created_at
		 FROM event_form_fields
		 WHERE event_id = $1
		 ORDER BY display_order ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var fields []model.FieldDescriptor
	for rows.Next() {
		var f model.FieldDescriptor
		if err := rows.Scan(
			&f.ID, &f.EventID, &f.FieldType, &f.Label, &f.Placeholder, &f.HelpText, &f.IsRequired,
			&f.DisplayOrder, &f.Options, &f.MinLength, &f.MaxLength, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Append inserts f at the end of its event's form. The event row is locked
// so concurrent appends cannot compute the same display order.
func (r *FieldRepository) Append(ctx context.Context, f *model.FieldDescriptor) (err error) {
	if !validID(f.EventID) {
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
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, f.EventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	options := f.Options
	if options == nil {
		options = []string{}
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO event_form_fields (
			event_id, field_type, label, placeholder, help_text, is_required,
			display_order, options, min_length, max_length)
		 SELECT $1, $2, $3, $4, $5, $6, COALESCE(MAX(display_order) + 1, 0), $7, $8, $9
		 FROM event_form_fields WHERE event_id = $1
		 RETURNING id, display_order, created_at`,
		f.EventID, f.FieldType, f.Label, f.Placeholder, f.HelpText, f.IsRequired,
		options, f.MinLength, f.MaxLength,
	).Scan(&f.ID, &f.DisplayOrder, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert field: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Delete removes the descriptor only if it belongs to eventID. A foreign or
// unknown id is a no-op.
func (r *FieldRepository) Delete(ctx context.Context, eventID string, fieldID int64) error {
	if !validID(eventID) {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`DELETE FROM event_form_fields WHERE id = $1 AND event_id = $2`,
		fieldID, eventID,
	)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return nil
}

// Reorder applies every (id, order) pair in one transaction. Pairs whose id
// is not one of the event's descriptors match no row and are skipped.
func (r *FieldRepository) Reorder(ctx context.Context, eventID string, orders []model.FieldOrder) error {
	if !validID(eventID) || len(orders) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, o := range orders {
			batch.Queue(
				`UPDATE event_form_fields SET display_order = $3 WHERE id = $1 AND event_id = $2`,
				o.ID, eventID, o.Order,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("reorder fields: %w", err)
		}
		return nil
	})
}
