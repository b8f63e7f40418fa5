package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/slug"
)

// SchemaOp selects the form-builder operation applied by ManageSchema.
type SchemaOp int

const (
	SchemaInsert SchemaOp = iota
	SchemaDelete
	SchemaReorder
)

func (op SchemaOp) String() string {
	switch op {
	case SchemaInsert:
		return "insert"
	case SchemaDelete:
		return "delete"
	case SchemaReorder:
		return "reorder"
	}
	return fmt.Sprintf("SchemaOp(%d)", int(op))
}

// SchemaChange is one form-builder edit. Only the payload matching Op is read.
type SchemaChange struct {
	Op      SchemaOp
	Field   model.FieldInput
	FieldID int64
	Orders  []model.FieldOrder
}

// SchemaService maintains the per-event registration form schema.
type SchemaService struct {
	events EventStore
	fields FieldStore
	log    zerolog.Logger
}

// NewSchemaService constructs a SchemaService.
func NewSchemaService(events EventStore, fields FieldStore, log zerolog.Logger) *SchemaService {
	return &SchemaService{
		events: events,
		fields: fields,
		log:    log.With().Str("component", "schema_service").Logger(),
	}
}

// GetFormSchema returns the event's descriptors ordered by (display_order, id).
func (s *SchemaService) GetFormSchema(ctx context.Context, eventID string) ([]model.FieldDescriptor, error) {
	if _, err := eventExists(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	return s.list(ctx, eventID)
}

// ManageSchema applies ch to the event's form and returns the updated schema.
// Deleting or reordering descriptors of another event is a silent no-op.
func (s *SchemaService) ManageSchema(ctx context.Context, eventID string, ch SchemaChange) ([]model.FieldDescriptor, error) {
	if _, err := eventExists(ctx, s.events, eventID); err != nil {
		return nil, err
	}

	switch ch.Op {
	case SchemaInsert:
		f, err := newDescriptor(ctx, eventID, ch.Field)
		if err != nil {
			return nil, err
		}
		if err := s.fields.Append(ctx, f); err != nil {
			return nil, fmt.Errorf("append field: %w", err)
		}
		s.log.Info().Str("event_id", eventID).Int64("field_id", f.ID).Str("field_type", string(f.FieldType)).Msg("form field added")

	case SchemaDelete:
		if err := s.fields.Delete(ctx, eventID, ch.FieldID); err != nil {
			return nil, fmt.Errorf("delete field: %w", err)
		}
		s.log.Info().Str("event_id", eventID).Int64("field_id", ch.FieldID).Msg("form field deleted")

	case SchemaReorder:
		verr := &model.ValidationError{}
		for i, o := range ch.Orders {
			if o.Order < 0 {
				verr.Add(fmt.Sprintf("fields[%d].order", i), "Ensure this value is greater than or equal to 0.")
			}
		}
		if err := verr.Err(); err != nil {
			return nil, err
		}
		if err := s.fields.Reorder(ctx, eventID, ch.Orders); err != nil {
			return nil, fmt.Errorf("reorder fields: %w", err)
		}
		s.log.Info().Str("event_id", eventID).Int("pairs", len(ch.Orders)).Msg("form fields reordered")

	default:
		return nil, fmt.Errorf("unknown schema operation %s", ch.Op)
	}

	return s.list(ctx, eventID)
}

// InsertField appends a descriptor built from in.
func (s *SchemaService) InsertField(ctx context.Context, eventID string, in model.FieldInput) ([]model.FieldDescriptor, error) {
	return s.ManageSchema(ctx, eventID, SchemaChange{Op: SchemaInsert, Field: in})
}

// DeleteField removes fieldID if it belongs to the event.
func (s *SchemaService) DeleteField(ctx context.Context, eventID string, fieldID int64) ([]model.FieldDescriptor, error) {
	return s.ManageSchema(ctx, eventID, SchemaChange{Op: SchemaDelete, FieldID: fieldID})
}

// ReorderFields applies new display orders.
func (s *SchemaService) ReorderFields(ctx context.Context, eventID string, orders []model.FieldOrder) ([]model.FieldDescriptor, error) {
	return s.ManageSchema(ctx, eventID, SchemaChange{Op: SchemaReorder, Orders: orders})
}

func (s *SchemaService) list(ctx context.Context, eventID string) ([]model.FieldDescriptor, error) {
	fields, err := s.fields.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	if fields == nil {
		fields = []model.FieldDescriptor{}
	}
	model.SortFields(fields)
	return fields, nil
}

// newDescriptor validates in and builds the descriptor to append.
func newDescriptor(ctx context.Context, eventID string, in model.FieldInput) (*model.FieldDescriptor, error) {
	in.Label = strings.TrimSpace(in.Label)
	in.Placeholder = strings.TrimSpace(in.Placeholder)
	in.HelpText = strings.TrimSpace(in.HelpText)

	verr := &model.ValidationError{}
	if err := validateStruct(ctx, in); err != nil && !errors.As(err, &verr) {
		return nil, err
	}
	if in.Label != "" && slug.FieldName(in.Label) == "" {
		verr.Add("label", "Label must contain at least one letter or digit.")
	}
	if in.MinLength != nil && in.MaxLength != nil && *in.MinLength > *in.MaxLength {
		verr.Add("min_length", "Minimum length cannot exceed maximum length.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	var options []string
	if in.FieldType.HasOptions() {
		for _, o := range in.Options {
			if o = strings.TrimSpace(o); o != "" {
				options = append(options, o)
			}
		}
	}

	return &model.FieldDescriptor{
		EventID:     eventID,
		FieldType:   in.FieldType,
		Label:       in.Label,
		Placeholder: in.Placeholder,
		HelpText:    in.HelpText,
		IsRequired:  in.IsRequired,
		Options:     options,
		MinLength:   in.MinLength,
		MaxLength:   in.MaxLength,
	}, nil
}
