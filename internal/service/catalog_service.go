package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront/internal/models"
	"storefront/internal/source"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ingestLockKey = "catalog-ingest"
	// LatestSummaryKey is the cache key of the summary over the stored catalog
	LatestSummaryKey = "latest"
)

// ProductStore persists and reads back catalog products
type ProductStore interface {
	UpsertProducts(ctx context.Context, products []models.Product) error
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// SummaryCache stores computed summaries and guards concurrent ingests
type SummaryCache interface {
	SetSummary(ctx context.Context, key string, rows []models.CategorySummary, ttl time.Duration) error
	GetSummary(ctx context.Context, key string) ([]models.CategorySummary, bool, error)
	AcquireLock(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey, token string) error
}

// CatalogEvents publishes catalog lifecycle events
type CatalogEvents interface {
	PublishCatalogIngested(ctx context.Context, event *models.CatalogIngestedEvent) error
}

// CatalogConfig holds the catalog service settings
type CatalogConfig struct {
	SourcePath string
	CacheTTL   time.Duration
	LockTTL    time.Duration
}

// CatalogService loads the product file and produces sales summaries
type CatalogService struct {
	store  ProductStore
	cache  SummaryCache
	events CatalogEvents
	cfg    CatalogConfig
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	store ProductStore,
	cache SummaryCache,
	events CatalogEvents,
	cfg CatalogConfig,
) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		events: events,
		cfg:    cfg,
		logger: util.GetLogger(),
	}
}

// IngestResult describes one load of the product file
type IngestResult struct {
	Products   []models.Product
	Checksum   string
	Imputation Imputation
	Persisted  bool
}

// BuildSummary loads, sanitizes and persists the product file, then
// aggregates the sanitized in-memory products. The stored summary is
// recomputed from the store since it may hold products the file lacks.
func (s *CatalogService) BuildSummary(ctx context.Context) ([]models.CategorySummary, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.BuildSummary")
	defer span.End()

	result, err := s.Ingest(ctx)
	if err != nil {
		return nil, err
	}

	rows := Aggregate(result.Products)
	util.SummaryRows.Set(float64(len(rows)))

	s.cacheSummary(ctx, result.Checksum, rows)
	if result.Persisted {
		if _, err := s.RefreshSummary(ctx); err != nil {
			s.logger.Warn("Failed to refresh stored summary", zap.Error(err))
		}
	}

	return rows, nil
}

// Ingest reads the product file, imputes missing values and upserts the
// products. Persistence is skipped when another ingest holds the lock.
func (s *CatalogService) Ingest(ctx context.Context) (*IngestResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Ingest")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IngestLatency.Observe(time.Since(start).Seconds())
	}()

	batch, err := source.ReadProductsFile(s.cfg.SourcePath)
	if err != nil {
		util.IngestFailedTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(batch.Records) == 0 {
		util.IngestFailedTotal.WithLabelValues("empty").Inc()
		return nil, ErrEmptyCatalog
	}

	records, imp := Sanitize(batch.Records)
	util.ImputedValuesTotal.WithLabelValues(source.ColPrice).Add(float64(imp.PricesFilled))
	util.ImputedValuesTotal.WithLabelValues(source.ColQuantitySold).Add(float64(imp.QuantitiesFilled))
	util.ImputedValuesTotal.WithLabelValues(source.ColRating).Add(float64(imp.RatingsFilled))

	products, err := ToProducts(records)
	if err != nil {
		util.IngestFailedTotal.WithLabelValues("sanitize").Inc()
		return nil, err
	}

	result := &IngestResult{
		Products:   products,
		Checksum:   batch.Checksum,
		Imputation: imp,
	}

	persisted, err := s.persist(ctx, batch.Checksum, products)
	if err != nil {
		util.IngestFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}
	result.Persisted = persisted

	if persisted {
		util.ProductsIngestedTotal.Add(float64(len(products)))
		s.logger.Info("Catalog ingested",
			zap.String("source", s.cfg.SourcePath),
			zap.Int("products", len(products)),
			zap.Int("imputed_prices", imp.PricesFilled),
			zap.Int("imputed_quantities", imp.QuantitiesFilled),
			zap.Int("imputed_ratings", imp.RatingsFilled))
		s.publishIngested(ctx, result)
	}

	return result, nil
}

// persist upserts products while holding the ingest lock. When Redis is
// unreachable the upsert proceeds unguarded.
func (s *CatalogService) persist(ctx context.Context, checksum string, products []models.Product) (bool, error) {
	token := uuid.New().String()

	acquired, err := s.cache.AcquireLock(ctx, ingestLockKey, token, s.cfg.LockTTL)
	if err != nil {
		s.logger.Warn("Ingest lock unavailable, persisting without it", zap.Error(err))
		acquired = true
	} else if !acquired {
		util.IngestFailedTotal.WithLabelValues("locked").Inc()
		s.logger.Warn("Another ingest is in progress, file not persisted",
			zap.String("source", s.cfg.SourcePath),
			zap.String("checksum", checksum),
			zap.Int("products", len(products)))
		return false, nil
	} else {
		defer func() {
			if err := s.cache.ReleaseLock(ctx, ingestLockKey, token); err != nil {
				s.logger.Error("Failed to release ingest lock", zap.Error(err))
			}
		}()
	}

	if err := s.store.UpsertProducts(ctx, products); err != nil {
		return false, fmt.Errorf("failed to persist products: %w", err)
	}
	return acquired, nil
}

func (s *CatalogService) publishIngested(ctx context.Context, result *IngestResult) {
	seen := make(map[string]bool)
	var categories []string
	for _, p := range result.Products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)

	event := &models.CatalogIngestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogIngested,
			Timestamp: time.Now(),
		},
		Source:       s.cfg.SourcePath,
		Checksum:     result.Checksum,
		ProductCount: len(result.Products),
		Categories:   categories,
	}

	if err := s.events.PublishCatalogIngested(ctx, event); err != nil {
		s.logger.Error("Failed to publish CatalogIngested event", zap.Error(err))
	}
}

// StoredSummary returns the summary over the persisted catalog, from the
// cache when possible.
func (s *CatalogService) StoredSummary(ctx context.Context) ([]models.CategorySummary, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.StoredSummary")
	defer span.End()

	rows, ok, err := s.cache.GetSummary(ctx, LatestSummaryKey)
	if err != nil {
		s.logger.Warn("Summary cache read failed", zap.Error(err))
	}
	if ok {
		util.SummaryCacheTotal.WithLabelValues("hit").Inc()
		return rows, nil
	}
	util.SummaryCacheTotal.WithLabelValues("miss").Inc()

	return s.RefreshSummary(ctx)
}

// RefreshSummary recomputes the summary from the products in the store
// and caches it.
func (s *CatalogService) RefreshSummary(ctx context.Context) ([]models.CategorySummary, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.RefreshSummary")
	defer span.End()

	products, err := s.store.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	rows := Aggregate(products)
	s.cacheSummary(ctx, LatestSummaryKey, rows)
	return rows, nil
}

// HandleCatalogIngested refreshes the cached summary after an ingest
func (s *CatalogService) HandleCatalogIngested(ctx context.Context, event *models.CatalogIngestedEvent) error {
	rows, err := s.RefreshSummary(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Summary refreshed",
		zap.String("event_id", event.EventID),
		zap.String("checksum", event.Checksum),
		zap.Int("rows", len(rows)))
	return nil
}

func (s *CatalogService) cacheSummary(ctx context.Context, key string, rows []models.CategorySummary) {
	if err := s.cache.SetSummary(ctx, key, rows, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("Failed to cache summary", zap.String("key", key), zap.Error(err))
	}
}
