package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mercantile/storefront/pkg/db/models"
	"github.com/mercantile/storefront/pkg/logger"
)

const (
	EventTypeOrderPaid = "order.paid"
	eventVersion       = 1

	attrEventType = "event_type"
	attrEventID   = "event_id"
)

// EventPublisher announces order lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, order *models.Order) error
}

// TopicPublisher is the publish side of the Pub/Sub client.
type TopicPublisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// Envelope is the stable wire shape of every order event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// OrderPaidEvent is the payload of order.paid.
type OrderPaidEvent struct {
	OrderID           uuid.UUID  `json:"order_id"`
	CheckoutSessionID uuid.UUID  `json:"checkout_session_id"`
	UserID            *uuid.UUID `json:"user_id,omitempty"`
	Currency          string     `json:"currency"`
	TotalCents        int64      `json:"total_cents"`
	ItemCount         int        `json:"item_count"`
}

// PubSubPublisher writes order events to a single Pub/Sub topic.
type PubSubPublisher struct {
	client TopicPublisher
	topic  string
	logg   *logger.Logger
	now    func() time.Time
}

// NewPubSubPublisher builds a publisher for the orders topic.
func NewPubSubPublisher(client TopicPublisher, topic string, logg *logger.Logger) (*PubSubPublisher, error) {
	if client == nil {
		return nil, errors.New("pubsub client required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("orders topic required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &PubSubPublisher{client: client, topic: topic, logg: logg, now: time.Now}, nil
}

func (p *PubSubPublisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	if order == nil {
		return errors.New("order required")
	}
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	data, err := json.Marshal(OrderPaidEvent{
		OrderID:           order.ID,
		CheckoutSessionID: order.CheckoutSessionID,
		UserID:            order.UserID,
		Currency:          order.Currency,
		TotalCents:        order.TotalCents,
		ItemCount:         itemCount,
	})
	if err != nil {
		return fmt.Errorf("encode order.paid: %w", err)
	}

	// event id is the order id, so replays carry the same id
	envelope := Envelope{
		Version:    eventVersion,
		EventID:    order.ID.String(),
		EventType:  EventTypeOrderPaid,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msgID, err := p.client.Publish(ctx, p.topic, payload, map[string]string{
		attrEventType: EventTypeOrderPaid,
		attrEventID:   envelope.EventID,
	})
	if err != nil {
		return fmt.Errorf("publish order.paid: %w", err)
	}
	p.logg.Info(p.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"message_id": msgID,
	}), "order.paid published")
	return nil
}

// NoopPublisher drops events; used when Pub/Sub is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPaid(context.Context, *models.Order) error {
	return nil
}
