package model

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/academy-events/internal/slug"
)

// FieldType is the input kind of a registration form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// HasOptions reports whether the type draws its values from Options.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

// FieldDescriptor is one admin-defined input on an event's registration form.
type FieldDescriptor struct {
	ID           int64     `json:"id"`
	EventID      string    `json:"event_id"`
	FieldType    FieldType `json:"field_type"`
	Label        string    `json:"label"`
	Placeholder  string    `json:"placeholder"`
	HelpText     string    `json:"help_text"`
	IsRequired   bool      `json:"is_required"`
	DisplayOrder int       `json:"display_order"`
	Options      []string  `json:"options"`
	MinLength    *int      `json:"min_length,omitempty"`
	MaxLength    *int      `json:"max_length,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FieldName is the form-data key derived from the label. Descriptors with
// equal labels share a name.
func (f *FieldDescriptor) FieldName() string {
	return slug.FieldName(f.Label)
}

// MarshalJSON adds the derived field_name to the encoded descriptor.
func (f FieldDescriptor) MarshalJSON() ([]byte, error) {
	type plain FieldDescriptor
	options := f.Options
	if options == nil {
		options = []string{}
	}
	p := plain(f)
	p.Options = options
	return json.Marshal(struct {
		plain
		FieldName string `json:"field_name"`
	}{p, f.FieldName()})
}

// SortFields orders descriptors by display order, breaking ties by id.
func SortFields(fields []FieldDescriptor) {
	slices.SortStableFunc(fields, func(a, b FieldDescriptor) int {
		if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// FieldInput is the admin payload for adding a field to an event form.
type FieldInput struct {
	FieldType   FieldType `json:"field_type" validate:"required,oneof=text email phone number date textarea select radio checkbox file"`
	Label       string    `json:"label" validate:"required,max=200"`
	Placeholder string    `json:"placeholder" validate:"max=200"`
	HelpText    string    `json:"help_text" validate:"max=300"`
	IsRequired  bool      `json:"is_required"`
	Options     []string  `json:"options" validate:"dive,max=200"`
	MinLength   *int      `json:"min_length" validate:"omitempty,gte=0"`
	MaxLength   *int      `json:"max_length" validate:"omitempty,gte=0"`
}

// FieldOrder assigns a new display order to one descriptor.
type FieldOrder struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

// ReorderRequest is the payload of the form-builder reorder call.
type ReorderRequest struct {
	Fields []FieldOrder `json:"fields"`
}
