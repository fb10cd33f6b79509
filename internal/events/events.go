// Package events publishes subscription lifecycle events for downstream
// consumers. Delivery is best effort: a broker outage never fails the
// request that produced the event.
package events

import (
	"context"
	"time"

	"equity/internal/config"
)

// Routing keys.
const (
	SubscriptionCreated  = "subscription.created"
	SubscriptionCanceled = "subscription.canceled"
)

// SubscriptionEvent is the message body for subscription routing keys.
type SubscriptionEvent struct {
	UserID         string    `json:"userId"`
	Email          string    `json:"email"`
	CustomerID     string    `json:"customerId,omitempty"`
	SubscriptionID string    `json:"subscriptionId"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher sends a JSON-encoded payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// Open returns an AMQP publisher when a broker URL is configured and a
// NopPublisher otherwise.
func Open(cfg config.AMQPConfig) (Publisher, error) {
	if cfg.URL == "" {
		return NopPublisher{}, nil
	}
	p, err := NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	return p, nil
}
