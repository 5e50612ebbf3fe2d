// Package metrics exposes Prometheus instrumentation for the feed
// consumption pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stixgate_feed_polls_total",
			Help: "Feed polls by final status",
		},
		[]string{"status"},
	)

	FeedPollsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stixgate_feed_polls_skipped_total",
			Help: "Polls skipped because another worker held the feed lock",
		},
	)

	ObjectsRetrieved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stixgate_objects_retrieved_total",
			Help: "STIX objects returned by remote TAXII servers",
		},
	)

	ObjectsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stixgate_objects_processed_total",
			Help: "STIX objects validated and stored",
		},
	)

	ObjectsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stixgate_objects_failed_total",
			Help: "STIX objects rejected during validation or storage",
		},
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stixgate_feed_poll_duration_seconds",
			Help:    "Wall-clock duration of feed polls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	TaxiiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stixgate_taxii_requests_total",
			Help: "Outbound TAXII requests by outcome",
		},
		[]string{"outcome"},
	)
)
