package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/clubpulse/lead-conversion-backend/internal/models"
)

// LeadTransitioned is published after a lead status change commits
type LeadTransitioned struct {
	LeadID         string            `json:"lead_id"`
	From           models.LeadStatus `json:"from"`
	To             models.LeadStatus `json:"to"`
	StaffID        *string           `json:"staff_id,omitempty"`
	ClubID         *string           `json:"club_id,omitempty"`
	SubscriptionID *string           `json:"subscription_id,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// RoutingKey is lead.<new status>, e.g. lead.converted
func (e LeadTransitioned) RoutingKey() string {
	return "lead." + string(e.To)
}

// Publisher delivers lifecycle events. Publishing is best effort: a failed
// publish never undoes a committed transition.
type Publisher interface {
	Publish(ctx context.Context, event LeadTransitioned) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares exchange
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event LeadTransitioned) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.RoutingKey(), err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher writes events to the log; used when no broker is configured
type LogPublisher struct {
	logger logrus.FieldLogger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event LeadTransitioned) error {
	fields := logrus.Fields{
		"event":   event.RoutingKey(),
		"lead_id": event.LeadID,
		"from":    event.From,
		"to":      event.To,
	}
	if event.SubscriptionID != nil {
		fields["subscription_id"] = *event.SubscriptionID
	}
	p.logger.WithFields(fields).Info("Lead transitioned")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*AMQPPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
