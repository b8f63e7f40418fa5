// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
)

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, e *model.Event) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetBySlug(ctx context.Context, slug string) (*model.Event, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	List(ctx context.Context, f repository.EventFilter) ([]model.Event, error)
}

// FieldStore persists registration form descriptors.
type FieldStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]model.FieldDescriptor, error)
	Append(ctx context.Context, f *model.FieldDescriptor) error
	Delete(ctx context.Context, eventID string, fieldID int64) error
	Reorder(ctx context.Context, eventID string, orders []model.FieldOrder) error
}

// RegistrationStore persists registrations.
type RegistrationStore interface {
	Admit(ctx context.Context, reg *model.Registration, check repository.AdmitCheck) error
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	Update(ctx context.Context, id string, upd model.RegistrationUpdate) (*model.Registration, error)
	Delete(ctx context.Context, id string) error
}

// Clock returns the current time.
type Clock func() time.Time

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of v and reports every failure as a
// *model.ValidationError keyed by JSON field name.
func validateStruct(ctx context.Context, v any) error {
	err := validate.StructCtx(ctx, v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &model.ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return "Invalid value."
}
