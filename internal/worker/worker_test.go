package worker

import (
	"context"
	"encoding/json"
	"testing"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRefresher struct {
	checksums []string
}

func (r *recordingRefresher) HandleCatalogIngested(_ context.Context, event *models.CatalogIngestedEvent) error {
	r.checksums = append(r.checksums, event.Checksum)
	return nil
}

func TestSummaryWorkerRoutesIngestEvents(t *testing.T) {
	refresher := &recordingRefresher{}
	w := NewSummaryWorker(nil, refresher)

	payload, err := json.Marshal(models.CatalogIngestedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeCatalogIngested},
		Checksum:  "abc123",
	})
	require.NoError(t, err)

	require.NoError(t, w.eventHandler.HandleMessage(context.Background(), kafka.Message{Value: payload}))
	assert.Equal(t, []string{"abc123"}, refresher.checksums)
}
