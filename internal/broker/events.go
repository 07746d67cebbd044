package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventProducer writes a keyed event to the event stream
type EventProducer interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer EventProducer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer EventProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCatalogIngested publishes CatalogIngested event
func (ep *EventPublisher) PublishCatalogIngested(ctx context.Context, event *models.CatalogIngestedEvent) error {
	key := fmt.Sprintf("catalog-%s", event.Checksum)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishUserRegistered publishes UserRegistered event
func (ep *EventPublisher) PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	key := fmt.Sprintf("user-%d", event.UserID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onCatalogIngested func(context.Context, *models.CatalogIngestedEvent) error
	logger            *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnCatalogIngested registers a handler for CatalogIngested events
func (eh *EventHandler) OnCatalogIngested(handler func(context.Context, *models.CatalogIngestedEvent) error) {
	eh.onCatalogIngested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeCatalogIngested:
		if eh.onCatalogIngested != nil {
			var event models.CatalogIngestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogIngested event: %w", err)
			}
			return eh.onCatalogIngested(ctx, &event)
		}

	case models.EventTypeUserRegistered:
		// consumed by downstream services only

	default:
		eh.logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
