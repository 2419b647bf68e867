package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_completed_total",
		Help: "Total number of settled purchases",
	})

	PurchasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_failed_total",
		Help: "Total number of failed purchase attempts",
	}, []string{"reason"})

	PurchaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_latency_seconds",
		Help:    "Latency of purchase transactions",
		Buckets: prometheus.DefBuckets,
	})

	LedgerCreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_credits_total",
		Help: "Total number of balance credits",
	})

	LedgerConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_conflicts_total",
		Help: "Total number of ledger write conflicts, including retried ones",
	})

	TopUpRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topup_requests_total",
		Help: "Total number of submitted top-up requests",
	})

	TopUpReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topup_reviews_total",
		Help: "Total number of reviewed top-up requests",
	}, []string{"status"})

	FulfillmentUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_updates_total",
		Help: "Total number of fulfillment status changes",
	}, []string{"status"})

	CatalogCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_requests_total",
		Help: "Catalog listing cache lookups",
	}, []string{"result"})

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
