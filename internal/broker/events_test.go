package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	keys   []string
	events []interface{}
}

func (p *recordingProducer) PublishEvent(_ context.Context, key string, event interface{}) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return nil
}

func TestPublisherKeys(t *testing.T) {
	producer := &recordingProducer{}
	publisher := NewEventPublisher(producer)
	ctx := context.Background()

	require.NoError(t, publisher.PublishCatalogIngested(ctx, &models.CatalogIngestedEvent{Checksum: "abc"}))
	require.NoError(t, publisher.PublishUserRegistered(ctx, &models.UserRegisteredEvent{UserID: 9}))

	assert.Equal(t, []string{"catalog-abc", "user-9"}, producer.keys)
}

func TestHandleMessageRoutesCatalogIngested(t *testing.T) {
	handler := NewEventHandler()

	var got *models.CatalogIngestedEvent
	handler.OnCatalogIngested(func(_ context.Context, e *models.CatalogIngestedEvent) error {
		got = e
		return nil
	})

	payload, err := json.Marshal(models.CatalogIngestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeCatalogIngested,
			Timestamp: time.Now(),
		},
		Checksum:     "abc",
		ProductCount: 3,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: payload}))
	require.NotNil(t, got)
	assert.Equal(t, "abc", got.Checksum)
	assert.Equal(t, 3, got.ProductCount)
}

func TestHandleMessageIgnoresOtherEvents(t *testing.T) {
	handler := NewEventHandler()
	handler.OnCatalogIngested(func(context.Context, *models.CatalogIngestedEvent) error {
		t.Fatal("unexpected call")
		return nil
	})

	payload := []byte(`{"event_id":"e","event_type":"USER_REGISTERED"}`)
	assert.NoError(t, handler.HandleMessage(context.Background(), kafka.Message{Value: payload}))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	handler := NewEventHandler()
	assert.Error(t, handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))
}
