package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/authflow/core"
	"github.com/layer-3/authflow/ports"
)

// TopicPrefix is prepended to the event type to form the topic name
const TopicPrefix = "authflow."

// Topic returns the topic an event type is published on
func Topic(eventType core.AuthEventType) string {
	return TopicPrefix + string(eventType)
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishAuthEvent publishes the event on its type's topic
func (p *WatermillPublisher) PublishAuthEvent(ctx context.Context, event core.AuthEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("subject", event.Subject)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(Topic(event.Type), msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
