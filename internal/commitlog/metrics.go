package commitlog

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/backbone81/durable-log/internal/segment"
)

var (
	AppendTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_append_total",
			Help: "Total number of records appended.",
		},
	)

	AppendBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_append_bytes_total",
			Help: "Total number of payload bytes appended.",
		},
	)

	FlushTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_flush_total",
			Help: "Total number of successful flushes of pending records.",
		},
	)

	FlushFailureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_flush_failure_total",
			Help: "Total number of failed flushes or writes.",
		},
	)

	FlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlog_flush_duration_seconds",
			Help:    "Duration of flushes of pending records in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		},
	)

	FlushBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlog_flush_batch_records",
			Help:    "Number of records made durable by a single flush.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	AbandonedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_abandoned_records_total",
			Help: "Total number of records rolled back because they could not be flushed.",
		},
	)

	RolloverTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_rollover_total",
			Help: "Total number of rollovers executed.",
		},
	)

	RolloverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlog_rollover_duration_seconds",
			Help:    "Duration of rollovers in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	TornTailTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_recovery_torn_tail_total",
			Help: "Total number of torn tails cut off during recovery.",
		},
	)

	TrimmedSegmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_trimmed_segments_total",
			Help: "Total number of segments deleted by trimming.",
		},
	)
)

// RegisterMetrics registers all metrics collectors of the commit log and its segments with the given prometheus
// registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		AppendTotal,
		AppendBytes,
		FlushTotal,
		FlushFailureTotal,
		FlushDuration,
		FlushBatchSize,
		AbandonedTotal,
		RolloverTotal,
		RolloverDuration,
		TornTailTotal,
		TrimmedSegmentsTotal,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return segment.RegisterMetrics(registerer)
}
