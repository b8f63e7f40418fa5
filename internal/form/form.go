// Package form compiles an event's field descriptors into a runtime
// validator and applies it to raw submissions.
//
// A compiled Form is plain data: one entry per descriptor, interpreted by a
// single type switch in clean. Nothing is generated at runtime.
package form

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

const (
	msgRequired    = "This field is required."
	msgEmail       = "Enter a valid email address."
	msgNumber      = "Enter a whole number."
	msgDate        = "Enter a valid date."
	msgChoice      = "Select a valid choice. %s is not one of the available choices."
	msgMinLength   = "Ensure this value has at least %d characters (it has %d)."
	msgMaxLength   = "Ensure this value has at most %d characters (it has %d)."
	msgNoFileGiven = "No file was submitted."
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Input is a raw submission: text values keyed by field name plus any
// uploaded files.
type Input struct {
	Values map[string][]string
	Files  map[string]model.FileRef
}

// Get returns the first text value for name.
func (in Input) Get(name string) (string, bool) {
	vs, ok := in.Values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Field is one compiled input: the storage key and the descriptor whose
// type and constraints drive validation.
type Field struct {
	Name       string
	Descriptor model.FieldDescriptor
}

// Form is the compiled schema of an event's registration form.
type Form struct {
	Fields []Field
}

// Compile orders descriptors by (display_order, id) and pairs each with its
// derived field name. The input slice is not modified.
func Compile(descriptors []model.FieldDescriptor) *Form {
	ordered := slices.Clone(descriptors)
	model.SortFields(ordered)

	f := &Form{Fields: make([]Field, 0, len(ordered))}
	for _, d := range ordered {
		f.Fields = append(f.Fields, Field{Name: d.FieldName(), Descriptor: d})
	}
	return f
}

// Names lists the field names in form order.
func (f *Form) Names() []string {
	names := make([]string, 0, len(f.Fields))
	for _, fld := range f.Fields {
		names = append(names, fld.Name)
	}
	return names
}

// Validate checks every field and returns the cleaned data, or a
// *model.ValidationError listing each failing field. Fields sharing a name
// overwrite each other in form order.
func (f *Form) Validate(in Input) (map[string]any, error) {
	data := make(map[string]any, len(f.Fields))
	verr := &model.ValidationError{}
	for _, fld := range f.Fields {
		value, msg := clean(fld, in)
		if msg != "" {
			verr.Add(fld.Name, msg)
			continue
		}
		data[fld.Name] = value
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// clean parses and validates one field. A non-empty message means failure.
func clean(fld Field, in Input) (any, string) {
	d := fld.Descriptor

	switch d.FieldType {
	case model.FieldCheckbox:
		raw, _ := in.Get(fld.Name)
		return parseBool(raw), ""

	case model.FieldFile:
		ref, ok := in.Files[fld.Name]
		if !ok || ref.Filename == "" {
			if d.IsRequired {
				return nil, msgNoFileGiven
			}
			return nil, ""
		}
		return ref, ""
	}

	raw, _ := in.Get(fld.Name)
	s := strings.TrimSpace(raw)
	if s == "" {
		if d.IsRequired {
			return nil, msgRequired
		}
		return emptyValue(d.FieldType), ""
	}

	switch d.FieldType {
	case model.FieldText, model.FieldTextarea:
		if msg := checkLength(d, s); msg != "" {
			return nil, msg
		}
		return s, ""

	case model.FieldEmail:
		if err := validate.Var(s, "email"); err != nil {
			return nil, msgEmail
		}
		return s, ""

	case model.FieldPhone:
		return s, ""

	case model.FieldNumber:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, msgNumber
		}
		return n, ""

	case model.FieldDate:
		date, err := model.ParseDate(s)
		if err != nil {
			return nil, msgDate
		}
		return date, ""

	case model.FieldSelect, model.FieldRadio:
		if !slices.Contains(d.Options, s) {
			return nil, fmt.Sprintf(msgChoice, s)
		}
		return s, ""
	}

	return nil, fmt.Sprintf("unsupported field type %q", d.FieldType)
}

// emptyValue is what an optional field stores when left blank.
func emptyValue(t model.FieldType) any {
	switch t {
	case model.FieldNumber, model.FieldDate:
		return nil
	}
	return ""
}

func checkLength(d model.FieldDescriptor, s string) string {
	n := utf8.RuneCountInString(s)
	if d.MinLength != nil && n < *d.MinLength {
		return fmt.Sprintf(msgMinLength, *d.MinLength, n)
	}
	if d.MaxLength != nil && n > *d.MaxLength {
		return fmt.Sprintf(msgMaxLength, *d.MaxLength, n)
	}
	return ""
}

// parseBool coerces a checkbox value. Absent and the usual false spellings
// are false; anything else that was submitted is true.
func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "false", "0", "off", "no":
		return false
	}
	return true
}
