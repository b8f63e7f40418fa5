package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/academy-events/internal/config"
)

// Rabbit publishes registration messages to a durable topic exchange.
type Rabbit struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	log        zerolog.Logger
}

// NewRabbit dials the broker and declares the exchange.
func NewRabbit(cfg config.AMQP, log zerolog.Logger) (*Rabbit, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	r := &Rabbit{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		log:        log.With().Str("component", "rabbit").Logger(),
	}
	r.log.Info().Str("exchange", cfg.Exchange).Msg("rabbitmq publisher ready")
	return r, nil
}

// RegistrationCreated publishes msg as persistent JSON.
func (r *Rabbit) RegistrationCreated(ctx context.Context, msg RegistrationCreated) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.channel.PublishWithContext(ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.RegistrationID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.RegistrationNumber, err)
	}
	r.log.Debug().Str("registration_number", msg.RegistrationNumber).Msg("message published")
	return nil
}

// Close shuts the channel and connection.
func (r *Rabbit) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
	r.log.Info().Msg("rabbitmq connection closed")
}
