package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationPrefix(t *testing.T) {
	day := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "EVT-20240315", RegistrationPrefix(day))
}

func TestNextRegistrationNumber(t *testing.T) {
	got, err := NextRegistrationNumber("EVT-20240315", "")
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240315-0001", got)

	got, err = NextRegistrationNumber("EVT-20240315", "EVT-20240315-0002")
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240315-0003", got)

	got, err = NextRegistrationNumber("EVT-20240315", "EVT-20240315-9999")
	require.NoError(t, err)
	assert.Equal(t, "EVT-20240315-10000", got)

	_, err = NextRegistrationNumber("EVT-20240315", "EVT-20240314-0002")
	assert.Error(t, err)
}

func TestSequenceOf(t *testing.T) {
	assert.Equal(t, 12, SequenceOf("EVT-20240315-0012"))
	assert.Equal(t, -1, SequenceOf("garbage"))
}

func TestClassify(t *testing.T) {
	serial := &pgconn.PgError{Code: codeSerializationFailure, Message: "could not serialize"}
	assert.ErrorIs(t, classify(fmt.Errorf("wrapped: %w", serial)), ErrConflict)

	dup := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "event_registrations_registration_number_key"}
	assert.ErrorIs(t, classify(dup), ErrConflict)

	slug := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: eventsSlugConstraint}
	assert.ErrorIs(t, classify(slug), ErrSlugTaken)

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("0b8f2c9e-8c43-4d7e-9b0c-3f1f0c6c2a11"))
	assert.False(t, validID("42"))
}
