package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_ingested_total",
		Help: "Total number of product rows persisted",
	})

	IngestFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_ingest_failed_total",
		Help: "Total number of failed catalog ingests",
	}, []string{"reason"})

	IngestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_ingest_latency_seconds",
		Help:    "Latency of load, sanitize and persist of the product file",
		Buckets: prometheus.DefBuckets,
	})

	ImputedValuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sanitizer_imputed_values_total",
		Help: "Total number of missing values replaced by a column statistic",
	}, []string{"column"})

	SourceInvalidCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "source_invalid_cells_total",
		Help: "Total number of unparseable numeric cells treated as missing",
	}, []string{"column"})

	SummaryRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "summary_rows",
		Help: "Number of rows in the most recently computed sales summary",
	})

	SummaryCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "summary_cache_lookups_total",
		Help: "Summary cache lookups by result",
	}, []string{"result"})

	SignupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signups_total",
		Help: "Total number of signup attempts by outcome",
	}, []string{"outcome"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
