package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/orderdesk/api/internal/services"
)

// PubSubOrderEventPublisher publishes order domain events to a Pub/Sub topic
// for downstream consumers such as the daily digest scheduler.
type PubSubOrderEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderEventPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderEventPublisher(topic *pubsub.Topic) (*PubSubOrderEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order event publisher: topic is required")
	}
	return &PubSubOrderEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

type orderEventMessage struct {
	Type       string `json:"type"`
	OrderID    string `json:"order_id"`
	OrderCode  string `json:"order_code"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurred_at"`
}

// PublishOrderEvent enqueues an order event message on the configured topic.
func (p *PubSubOrderEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub order event publisher: not initialised")
	}

	data, err := p.marshal(orderEventMessage{
		Type:       event.Type,
		OrderID:    event.OrderID,
		OrderCode:  event.OrderCode,
		Status:     string(event.Status),
		OccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	attrs := map[string]string{"type": event.Type}
	if id := strings.TrimSpace(event.OrderID); id != "" {
		attrs["orderId"] = id
	}
	if code := strings.TrimSpace(event.OrderCode); code != "" {
		attrs["orderCode"] = code
	}

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

var _ services.OrderEventPublisher = (*PubSubOrderEventPublisher)(nil)
