// Package events delivers reservation transitions to collaborators over
// AMQP. The engine only publishes after commit and never waits on a
// consumer.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/example/slot-scheduler/internal/domain/reservation"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, reservation.Event) error { return nil }
func (Nop) Close() error                                    { return nil }

type Publisher interface {
	reservation.Publisher
	Close() error
}

// AMQP publishes JSON events to a topic exchange, routed by event type.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// Open returns Nop when url is empty.
func Open(url, exchange string, log *zap.Logger) (Publisher, error) {
	if strings.TrimSpace(url) == "" {
		log.Info("events disabled, no broker configured")
		return Nop{}, nil
	}
	return Dial(url, exchange, log)
}

func Dial(url, exchange string, log *zap.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	log.Info("events connected", zap.String("exchange", exchange))
	return &AMQP{conn: conn, channel: channel, exchange: exchange, log: log}, nil
}

func (p *AMQP) Publish(ctx context.Context, e reservation.Event) error {
	msg, err := Encode(e)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx, p.exchange, e.Type, false, false, msg)
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		p.log.Warn("close channel", zap.Error(err))
	}
	return p.conn.Close()
}

// Encode builds the wire message for e.
func Encode(e reservation.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode %s: %w", e.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.Reservation.ID + ":" + string(e.Reservation.Status),
		Timestamp:    e.At,
		Type:         e.Type,
		Body:         body,
	}, nil
}
