// Package repository implements persistence for events, form fields and
// registrations. It uses pgx directly (no ORM) for transparency.
package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write lost a race with a concurrent one.
// The whole operation may be retried.
var ErrConflict = errors.New("concurrent update conflict")

// ErrSlugTaken is returned when an event slug is already in use.
var ErrSlugTaken = errors.New("slug already in use")

// AdmitCheck re-evaluates admission rules against the locked event and its
// live registration count inside the commit transaction.
type AdmitCheck func(event *model.Event, count int) error

// EventFilter narrows event listings.
type EventFilter struct {
	Statuses  []model.EventStatus
	EventType model.EventType
	// Ascending sorts by start date oldest first; the default is newest first.
	Ascending bool
}

// Postgres error codes handled by classify.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"

	eventsSlugConstraint = "events_slug_key"
)

// classify maps retryable Postgres failures onto ErrConflict and slug
// collisions onto ErrSlugTaken. Other errors pass through.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	case codeUniqueViolation:
		if pgErr.ConstraintName == eventsSlugConstraint {
			return ErrSlugTaken
		}
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	}
	return err
}

// validID reports whether id can be a primary key at all, so malformed ids
// become ErrNotFound rather than a driver error.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// registrationNumberPrefix is the fixed head of every registration number.
const registrationNumberPrefix = "EVT"

// RegistrationPrefix returns the per-day prefix, e.g. EVT-20240315.
func RegistrationPrefix(day time.Time) string {
	return registrationNumberPrefix + "-" + day.Format("20060102")
}

// NextRegistrationNumber returns the number following last within prefix.
// An empty last starts the day at 0001.
func NextRegistrationNumber(prefix, last string) (string, error) {
	seq := 0
	if last != "" {
		tail, ok := strings.CutPrefix(last, prefix+"-")
		if !ok {
			return "", fmt.Errorf("registration number %q does not match prefix %q", last, prefix)
		}
		n, err := strconv.Atoi(tail)
		if err != nil {
			return "", fmt.Errorf("parse sequence of %q: %w", last, err)
		}
		seq = n
	}
	return fmt.Sprintf("%s-%04d", prefix, seq+1), nil
}

// SequenceOf extracts the numeric suffix of a registration number, or -1.
func SequenceOf(number string) int {
	i := strings.LastIndexByte(number, '-')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(number[i+1:])
	if err != nil {
		return -1
	}
	return n
}
