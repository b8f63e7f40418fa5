package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/academy-events/internal/form"
	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/notify"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository/memory"
)

var ctx = context.Background()

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// countingFields records how often the schema store is read.
type countingFields struct {
	FieldStore
	mu    sync.Mutex
	reads int
}

func (c *countingFields) ListByEvent(ctx context.Context, eventID string) ([]model.FieldDescriptor, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.FieldStore.ListByEvent(ctx, eventID)
}

// flakyRegistrations fails the first n Admit calls with ErrConflict.
type flakyRegistrations struct {
	RegistrationStore
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (f *flakyRegistrations) Admit(ctx context.Context, reg *model.Registration, check repository.AdmitCheck) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.conflicts
	f.mu.Unlock()
	if fail {
		return fmt.Errorf("insert registration: %w", repository.ErrConflict)
	}
	return f.RegistrationStore.Admit(ctx, reg, check)
}

// recordingNotifier keeps published messages and can be told to fail.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.RegistrationCreated
	err  error
}

func (n *recordingNotifier) RegistrationCreated(_ context.Context, msg notify.RegistrationCreated) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

type fixture struct {
	clock         *fakeClock
	fields        *countingFields
	registrations *flakyRegistrations
	notifier      *recordingNotifier
	events        *EventService
	schema        *SchemaService
	admission     *RegistrationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	eventStore := memory.NewEventRepository(db)
	f := &fixture{
		clock:         &fakeClock{now: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)},
		fields:        &countingFields{FieldStore: memory.NewFieldRepository(db)},
		registrations: &flakyRegistrations{RegistrationStore: memory.NewRegistrationRepository(db)},
		notifier:      &recordingNotifier{},
	}
	log := zerolog.Nop()
	f.events = NewEventService(eventStore, f.fields, f.clock.Now, log)
	f.schema = NewSchemaService(eventStore, f.fields, log)
	f.admission = NewRegistrationService(eventStore, f.fields, f.registrations, f.notifier, f.clock.Now,
		RegistrationOptions{MaxAttempts: 3, Location: time.UTC}, log)
	return f
}

// openEvent creates an upcoming event that requires registration.
func (f *fixture) openEvent(t *testing.T, mutate func(*model.EventInput)) *model.Event {
	t.Helper()
	in := model.EventInput{
		Title:                "Summer Trials",
		EventType:            model.EventTrial,
		Venue:                "Main Ground",
		StartDate:            model.NewDate(2024, 4, 1),
		RegistrationRequired: true,
		Status:               model.EventUpcoming,
		IsFree:               true,
	}
	if mutate != nil {
		mutate(&in)
	}
	e, err := f.events.CreateEvent(ctx, in)
	require.NoError(t, err)
	return e
}

func (f *fixture) addField(t *testing.T, eventID string, in model.FieldInput) model.FieldDescriptor {
	t.Helper()
	fields, err := f.schema.InsertField(ctx, eventID, in)
	require.NoError(t, err)
	return fields[len(fields)-1]
}

func textInput(kv ...string) form.Input {
	in := form.Input{Values: map[string][]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		in.Values[kv[i]] = []string{kv[i+1]}
	}
	return in
}

func intPtr(n int) *int { return &n }
