package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
	"github.com/Shivanand-hulikatti/academy-events/internal/repository"
)

func TestSubmit_AssignsDailyGlobalSequence(t *testing.T) {
	f := newFixture(t)
	a := f.openEvent(t, nil)
	b := f.openEvent(t, func(in *model.EventInput) { in.Title = "Winter Camp" })

	_, err := f.admission.Submit(ctx, a.ID, textInput())
	require.NoError(t, err)
	_, err = f.admission.Submit(ctx, b.ID, textInput())
	require.NoError(t, err)
	third, err := f.admission.Submit(ctx, a.ID, textInput())
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240315-0003", third.RegistrationNumber)

	f.clock.Set(time.Date(2024, 3, 16, 0, 0, 1, 0, time.UTC))
	nextDay, err := f.admission.Submit(ctx, b.ID, textInput())
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240316-0001", nextDay.RegistrationNumber)
}

func TestSubmit_DayFollowsConfiguredLocation(t *testing.T) {
	f := newFixture(t)
	kolkata := time.FixedZone("IST", 5*3600+1800)
	f.admission.opts.Location = kolkata
	e := f.openEvent(t, nil)

	f.clock.Set(time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC))
	reg, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240316-0001", reg.RegistrationNumber)
}

func TestSubmit_RegistrationNotRequiredSkipsSchema(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, func(in *model.EventInput) { in.RegistrationRequired = false })
	before := f.fields.reads

	_, err := f.admission.Submit(ctx, e.ID, textInput())
	assert.ErrorIs(t, err, model.ErrRegistrationNotRequired)
	assert.Equal(t, before, f.fields.reads)
}

func TestSubmit_AdmissionRulesInOrder(t *testing.T) {
	past := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*model.EventInput)
		seed   int // registrations admitted before the deadline
		want   error
	}{
		{"draft beats deadline", func(in *model.EventInput) {
			in.Status = model.EventDraft
			in.RegistrationDeadline = &past
		}, 0, model.ErrEventNotOpen},
		{"completed", func(in *model.EventInput) { in.Status = model.EventCompleted }, 0, model.ErrEventNotOpen},
		{"cancelled", func(in *model.EventInput) { in.Status = model.EventCancelled }, 0, model.ErrEventNotOpen},
		{"deadline beats capacity", func(in *model.EventInput) {
			in.RegistrationDeadline = &past
			in.MaxParticipants = intPtr(1)
		}, 1, model.ErrDeadlinePassed},
		{"full", func(in *model.EventInput) { in.MaxParticipants = intPtr(1) }, 1, model.ErrEventFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			e := f.openEvent(t, tc.mutate)

			now := f.clock.Now()
			f.clock.Set(past.Add(-time.Hour))
			for n := 0; n < tc.seed; n++ {
				_, err := f.admission.Submit(ctx, e.ID, textInput())
				require.NoError(t, err)
			}
			f.clock.Set(now)
			f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Name", IsRequired: true})

			_, err := f.admission.Submit(ctx, e.ID, textInput())
			assert.ErrorIs(t, err, tc.want)
			var verr *model.ValidationError
			assert.False(t, errors.As(err, &verr), "admission errors come before validation")
		})
	}
}

func TestSubmit_ZeroCapacityIsUnlimited(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, func(in *model.EventInput) { in.MaxParticipants = intPtr(0) })

	for n := 0; n < 3; n++ {
		_, err := f.admission.Submit(ctx, e.ID, textInput())
		require.NoError(t, err)
	}
	detail, err := f.events.GetPublicEvent(ctx, e.Slug)
	require.NoError(t, err)
	assert.Nil(t, detail.AvailableSlots)
	assert.True(t, detail.CanRegister)
}

func TestSubmit_OngoingEventIsOpen(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, func(in *model.EventInput) { in.Status = model.EventOngoing })
	_, err := f.admission.Submit(ctx, e.ID, textInput())
	assert.NoError(t, err)
}

func TestSubmit_DeadlineBoundary(t *testing.T) {
	f := newFixture(t)
	deadline := time.Date(2024, 3, 20, 18, 0, 0, 0, time.UTC)
	e := f.openEvent(t, func(in *model.EventInput) { in.RegistrationDeadline = &deadline })

	f.clock.Set(deadline)
	_, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)

	f.clock.Set(deadline.Add(time.Microsecond))
	_, err = f.admission.Submit(ctx, e.ID, textInput())
	assert.ErrorIs(t, err, model.ErrDeadlinePassed)
}

func TestSubmit_CapacityBoundary(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, func(in *model.EventInput) { in.MaxParticipants = intPtr(2) })

	_, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)
	_, err = f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)
	_, err = f.admission.Submit(ctx, e.ID, textInput())
	assert.ErrorIs(t, err, model.ErrEventFull)
}

func TestSubmit_ConcurrentSubmissionsNeverOverbook(t *testing.T) {
	f := newFixture(t)
	const capacity, attempts = 5, 40
	e := f.openEvent(t, func(in *model.EventInput) { in.MaxParticipants = intPtr(capacity) })

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
		full    int
	)
	for n := 0; n < attempts; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, err := f.admission.Submit(ctx, e.ID, textInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				numbers[reg.RegistrationNumber] = true
			case errors.Is(err, model.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, capacity)
	assert.Equal(t, attempts-capacity, full)
	regs, err := f.admission.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, regs, capacity)
}

func TestSubmit_LastSlotRaceAdmitsExactlyOne(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, func(in *model.EventInput) { in.MaxParticipants = intPtr(2) })
	_, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.admission.Submit(ctx, e.ID, textInput())
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, model.ErrEventFull)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestSubmit_MissingRequiredFieldPersistsNothing(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Full Name", IsRequired: true})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldDate, Label: "Date of Birth", IsRequired: true})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldCheckbox, Label: "Consent", IsRequired: true})

	_, err := f.admission.Submit(ctx, e.ID, textInput("full_name", "Asha"))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []model.FieldError{{Field: "date_of_birth", Message: "This field is required."}}, verr.Errors)

	regs, err := f.admission.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, regs)
	assert.Empty(t, f.notifier.msgs)
}

func TestSubmit_StoresTypedFormDataAndContact(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Full Name", IsRequired: true})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldEmail, Label: "Email"})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldPhone, Label: "Phone Number"})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldNumber, Label: "Age"})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldSelect, Label: "Batch", Options: []string{"Morning", "Evening"}})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldCheckbox, Label: "Has Kit"})

	reg, err := f.admission.Submit(ctx, e.ID, textInput(
		"full_name", "Asha Rao", "email", "asha@example.com", "phone_number", "98765",
		"age", "13", "batch", "Evening",
	))
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", reg.ParticipantName)
	assert.Equal(t, "asha@example.com", reg.Email)
	assert.Equal(t, "98765", reg.Phone)
	assert.Equal(t, model.RegistrationPending, reg.Status)
	assert.Equal(t, map[string]any{
		"full_name":    "Asha Rao",
		"email":        "asha@example.com",
		"phone_number": "98765",
		"age":          int64(13),
		"batch":        "Evening",
		"has_kit":      false,
	}, reg.FormData)

	require.Len(t, f.notifier.msgs, 1)
	assert.Equal(t, reg.RegistrationNumber, f.notifier.msgs[0].RegistrationNumber)
	assert.Equal(t, e.Title, f.notifier.msgs[0].EventTitle)
}

func TestSubmit_ContactPlaceholders(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Player"})

	reg, err := f.admission.Submit(ctx, e.ID, textInput("player", "Ravi"))
	require.NoError(t, err)
	assert.Equal(t, PlaceholderName, reg.ParticipantName)
	assert.Equal(t, PlaceholderEmail, reg.Email)
	assert.Empty(t, reg.Phone)
}

func TestSubmit_NameFallsBackFromFullName(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Full Name"})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Name"})

	reg, err := f.admission.Submit(ctx, e.ID, textInput("name", "Short"))
	require.NoError(t, err)
	assert.Equal(t, "Short", reg.ParticipantName)
}

func TestSubmit_RetriesConflicts(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.registrations.conflicts = 2

	reg, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240315-0001", reg.RegistrationNumber)
	assert.Equal(t, 3, f.registrations.calls)

	regs, err := f.admission.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestSubmit_ConflictAfterExhaustingAttempts(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.registrations.conflicts = 10

	_, err := f.admission.Submit(ctx, e.ID, textInput())
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 3, f.registrations.calls)

	regs, err := f.admission.ListRegistrations(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, regs)

	// A resubmission after the conflict clears is admitted exactly once.
	f.registrations.conflicts = 0
	reg, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240315-0001", reg.RegistrationNumber)
}

func TestSubmit_NotifierFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.notifier.err = errors.New("broker down")

	_, err := f.admission.Submit(ctx, e.ID, textInput())
	assert.NoError(t, err)
}

func TestSubmit_UnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.admission.Submit(ctx, "3f7c1f8e-5a55-4a53-9a8c-0d1c7b1f0e11", textInput())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmit_DeletedFieldDoesNotRewriteOldRegistrations(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	shirt := f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Shirt Size"})

	old, err := f.admission.Submit(ctx, e.ID, textInput("shirt_size", "M"))
	require.NoError(t, err)

	_, err = f.schema.DeleteField(ctx, e.ID, shirt.ID)
	require.NoError(t, err)
	fresh, err := f.admission.Submit(ctx, e.ID, textInput("shirt_size", "L"))
	require.NoError(t, err)
	assert.Empty(t, fresh.FormData)

	stored, err := f.admission.GetRegistration(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, "M", stored.FormData["shirt_size"])
}

func TestUpdateRegistration(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	reg, err := f.admission.Submit(ctx, e.ID, textInput())
	require.NoError(t, err)

	attended := model.RegistrationAttended
	got, err := f.admission.UpdateRegistration(ctx, reg.ID, model.RegistrationUpdate{Status: &attended})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationAttended, got.Status)

	bogus := model.RegistrationStatus("lost")
	_, err = f.admission.UpdateRegistration(ctx, reg.ID, model.RegistrationUpdate{Status: &bogus})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("status"))

	require.NoError(t, f.admission.DeleteRegistration(ctx, reg.ID))
	assert.ErrorIs(t, f.admission.DeleteRegistration(ctx, reg.ID), repository.ErrNotFound)
}

func TestExportRegistrations(t *testing.T) {
	f := newFixture(t)
	e := f.openEvent(t, nil)
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Full Name"})
	legacy := f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldText, Label: "Old Question"})
	f.addField(t, e.ID, model.FieldInput{FieldType: model.FieldCheckbox, Label: "Consent"})

	_, err := f.admission.Submit(ctx, e.ID, textInput("full_name", "Asha", "old_question", "yes", "consent", "on"))
	require.NoError(t, err)
	_, err = f.schema.DeleteField(ctx, e.ID, legacy.ID)
	require.NoError(t, err)
	f.clock.Set(f.clock.Now().Add(time.Minute))
	_, err = f.admission.Submit(ctx, e.ID, textInput("full_name", "Ravi"))
	require.NoError(t, err)

	var buf bytes.Buffer
	name, err := f.admission.ExportRegistrations(ctx, e.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, "summer-trials-registrations.csv", name)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Registration Number", "Participant", "Email", "Phone", "Status", "Registered At",
		"Full Name", "Consent", "old_question",
	}, rows[0])
	assert.Equal(t, []string{
		"EVT-20240315-0002", "Ravi", PlaceholderEmail, "", "pending", "2024-03-15 10:01",
		"Ravi", "No", "",
	}, rows[1])
	assert.Equal(t, []string{
		"EVT-20240315-0001", "Asha", PlaceholderEmail, "", "pending", "2024-03-15 10:00",
		"Asha", "Yes", "yes",
	}, rows[2])
}
