// Package notify announces admitted registrations to downstream consumers
// such as the confirmation mailer.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/model"
)

// RegistrationCreated is the message published for every admitted registration.
type RegistrationCreated struct {
	RegistrationID     string    `json:"registration_id"`
	RegistrationNumber string    `json:"registration_number"`
	EventID            string    `json:"event_id"`
	EventTitle         string    `json:"event_title"`
	ParticipantName    string    `json:"participant_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewRegistrationCreated builds the message for reg on event.
func NewRegistrationCreated(event *model.Event, reg *model.Registration) RegistrationCreated {
	return RegistrationCreated{
		RegistrationID:     reg.ID,
		RegistrationNumber: reg.RegistrationNumber,
		EventID:            event.ID,
		EventTitle:         event.Title,
		ParticipantName:    reg.ParticipantName,
		Email:              reg.Email,
		Phone:              reg.Phone,
		CreatedAt:          reg.CreatedAt,
	}
}

// Notifier delivers RegistrationCreated messages.
type Notifier interface {
	RegistrationCreated(ctx context.Context, msg RegistrationCreated) error
}

// LogNotifier only logs; it is used when no broker is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

// RegistrationCreated logs msg at info level.
func (n *LogNotifier) RegistrationCreated(_ context.Context, msg RegistrationCreated) error {
	n.log.Info().
		Str("registration_number", msg.RegistrationNumber).
		Str("event_id", msg.EventID).
		Str("email", msg.Email).
		Msg("registration created")
	return nil
}
