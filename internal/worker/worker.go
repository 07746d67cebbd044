package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// SummaryRefresher rebuilds the cached summary after an ingest
type SummaryRefresher interface {
	HandleCatalogIngested(ctx context.Context, event *models.CatalogIngestedEvent) error
}

// SummaryWorker keeps the cached summary in step with the stored catalog
type SummaryWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewSummaryWorker creates a new summary worker
func NewSummaryWorker(consumer *broker.Consumer, refresher SummaryRefresher) *SummaryWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnCatalogIngested(refresher.HandleCatalogIngested)

	return &SummaryWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start consumes catalog events until ctx is cancelled
func (w *SummaryWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting summary worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SummaryWorker) Stop() error {
	w.logger.Info("Stopping summary worker")
	return w.consumer.Close()
}
