// Package memory is an in-process implementation of the repositories, used
// when STORAGE=memory and by tests. A single mutex guards all state, which
// gives Admit the same all-or-nothing semantics as the Postgres transaction.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
)

// DB holds every table.
type DB struct {
	mu            sync.Mutex
	events        map[string]model.Event
	fields        map[int64]model.FieldDescriptor
	registrations map[string]model.Registration
	nextFieldID   int64
	now           func() time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{
		events:        map[string]model.Event{},
		fields:        map[int64]model.FieldDescriptor{},
		registrations: map[string]model.Registration{},
		now:           time.Now,
	}
}

func (db *DB) countLocked(eventID string) int {
	n := 0
	for _, r := range db.registrations {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func (db *DB) eventLocked(id string) (*model.Event, bool) {
	e, ok := db.events[id]
	if !ok {
		return nil, false
	}
	e.RegistrationCount = db.countLocked(id)
	return &e, true
}

// EventRepository stores events.
type EventRepository struct{ db *DB }

// NewEventRepository constructs an EventRepository over db.
func NewEventRepository(db *DB) *EventRepository { return &EventRepository{db: db} }

// Create inserts e.
func (r *EventRepository) Create(_ context.Context, e *model.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.events {
		if other.Slug == e.Slug {
			return repository.ErrSlugTaken
		}
	}
	r.db.events[e.ID] = *e
	return nil
}

// Update replaces an existing event.
func (r *EventRepository) Update(_ context.Context, e *model.Event) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.events[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.db.events {
		if id != e.ID && other.Slug == e.Slug {
			return repository.ErrSlugTaken
		}
	}
	updated := *e
	updated.CreatedAt = cur.CreatedAt
	r.db.events[e.ID] = updated
	return nil
}

// Delete removes an event with its fields and registrations.
func (r *EventRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.events, id)
	maps.DeleteFunc(r.db.fields, func(_ int64, f model.FieldDescriptor) bool { return f.EventID == id })
	maps.DeleteFunc(r.db.registrations, func(_ string, reg model.Registration) bool { return reg.EventID == id })
	return nil
}

// GetByID returns one event.
func (r *EventRepository) GetByID(_ context.Context, id string) (*model.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	e, ok := r.db.eventLocked(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

// GetBySlug returns one event by slug.
func (r *EventRepository) GetBySlug(_ context.Context, slug string) (*model.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, e := range r.db.events {
		if e.Slug == slug {
			found, _ := r.db.eventLocked(id)
			return found, nil
		}
	}
	return nil, repository.ErrNotFound
}

// SlugTaken reports whether another event uses slug.
func (r *EventRepository) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, e := range r.db.events {
		if id != exceptID && e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// List returns events matching f ordered by start date.
func (r *EventRepository) List(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Event
	for id, e := range r.db.events {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		found, _ := r.db.eventLocked(id)
		out = append(out, *found)
	}
	slices.SortFunc(out, func(a, b model.Event) int {
		c := a.StartDate.Compare(b.StartDate.Time)
		if c == 0 {
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if !f.Ascending {
			c = -c
		}
		return c
	})
	return out, nil
}

// FieldRepository stores form descriptors.
type FieldRepository struct{ db *DB }

// NewFieldRepository constructs a FieldRepository over db.
func NewFieldRepository(db *DB) *FieldRepository { return &FieldRepository{db: db} }

// ListByEvent returns descriptors ordered by (display_order, id).
func (r *FieldRepository) ListByEvent(_ context.Context, eventID string) ([]model.FieldDescriptor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.FieldDescriptor
	for _, f := range r.db.fields {
		if f.EventID == eventID {
			f.Options = slices.Clone(f.Options)
			out = append(out, f)
		}
	}
	model.SortFields(out)
	return out, nil
}

// Append inserts f after the event's last descriptor.
func (r *FieldRepository) Append(_ context.Context, f *model.FieldDescriptor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.events[f.EventID]; !ok {
		return repository.ErrNotFound
	}
	order, seen := 0, false
	for _, other := range r.db.fields {
		if other.EventID == f.EventID && (!seen || other.DisplayOrder+1 > order) {
			order, seen = other.DisplayOrder+1, true
		}
	}
	r.db.nextFieldID++
	f.ID = r.db.nextFieldID
	f.DisplayOrder = order
	f.CreatedAt = r.db.now().UTC()
	stored := *f
	stored.Options = slices.Clone(f.Options)
	r.db.fields[f.ID] = stored
	return nil
}

// Delete removes the descriptor if it belongs to eventID.
func (r *FieldRepository) Delete(_ context.Context, eventID string, fieldID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if f, ok := r.db.fields[fieldID]; ok && f.EventID == eventID {
		delete(r.db.fields, fieldID)
	}
	return nil
}

// Reorder applies the orders that target eventID's descriptors.
func (r *FieldRepository) Reorder(_ context.Context, eventID string, orders []model.FieldOrder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range orders {
		f, ok := r.db.fields[o.ID]
		if !ok || f.EventID != eventID {
			continue
		}
		f.DisplayOrder = o.Order
		r.db.fields[o.ID] = f
	}
	return nil
}

// RegistrationRepository stores registrations.
type RegistrationRepository struct{ db *DB }

// NewRegistrationRepository constructs a RegistrationRepository over db.
func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Admit re-runs check and stores reg with the next number for its day.
func (r *RegistrationRepository) Admit(ctx context.Context, reg *model.Registration, check repository.AdmitCheck) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	event, ok := r.db.eventLocked(reg.EventID)
	if !ok {
		return repository.ErrNotFound
	}
	if err := check(event, event.RegistrationCount); err != nil {
		return err
	}

	prefix := repository.RegistrationPrefix(reg.CreatedAt)
	last, lastSeq := "", -1
	for _, other := range r.db.registrations {
		if !strings.HasPrefix(other.RegistrationNumber, prefix+"-") {
			continue
		}
		if seq := repository.SequenceOf(other.RegistrationNumber); seq > lastSeq {
			last, lastSeq = other.RegistrationNumber, seq
		}
	}
	number, err := repository.NextRegistrationNumber(prefix, last)
	if err != nil {
		return err
	}

	reg.RegistrationNumber = number
	stored := *reg
	stored.FormData = maps.Clone(reg.FormData)
	r.db.registrations[reg.ID] = stored
	return nil
}

// ListByEvent returns the event's registrations, newest first.
func (r *RegistrationRepository) ListByEvent(_ context.Context, eventID string) ([]model.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Registration
	for _, reg := range r.db.registrations {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	slices.SortFunc(out, func(a, b model.Registration) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return repository.SequenceOf(b.RegistrationNumber) - repository.SequenceOf(a.RegistrationNumber)
	})
	return out, nil
}

// GetByID returns one registration.
func (r *RegistrationRepository) GetByID(_ context.Context, id string) (*model.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	reg, ok := r.db.registrations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

// Update changes status and/or admin notes.
func (r *RegistrationRepository) Update(_ context.Context, id string, upd model.RegistrationUpdate) (*model.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	reg, ok := r.db.registrations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Status != nil {
		reg.Status = *upd.Status
	}
	if upd.AdminNotes != nil {
		reg.AdminNotes = *upd.AdminNotes
	}
	reg.UpdatedAt = r.db.now().UTC()
	r.db.registrations[id] = reg
	return &reg, nil
}

// Delete removes a registration.
func (r *RegistrationRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.registrations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.registrations, id)
	return nil
}
