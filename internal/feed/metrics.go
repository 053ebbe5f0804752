package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whatsgood_feed_snapshots_delivered_total",
		Help: "The total number of feed snapshots published to subscribers",
	}, []string{"collection", "path"})

	fallbackActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whatsgood_feed_fallback_queries_total",
		Help: "The total number of times a feed fell back to the unordered query",
	}, []string{"collection"})

	enrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whatsgood_feed_enrichment_failures_total",
		Help: "The total number of absorbed secondary-lookup failures",
	}, []string{"lookup"})

	likeReconciliations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whatsgood_feed_like_reconciliations_total",
		Help: "The total number of optimistic like counts reconciled against the store",
	})

	peopleAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whatsgood_people_api_request_duration_seconds",
		Help:    "Histogram of people directory API request latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path", "status_code"})
)
