package segment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ScanRecordTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_segment_scan_record_total",
			Help: "Total number of records validated while scanning segments.",
		},
	)

	ScanRecordBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_segment_scan_record_bytes_total",
			Help: "Total number of payload bytes validated while scanning segments.",
		},
	)

	ReadRecordTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_segment_read_record_total",
			Help: "Total number of records read by position.",
		},
	)

	ReadRecordBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlog_segment_read_record_bytes_total",
			Help: "Total number of payload bytes read by position.",
		},
	)

	FlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dlog_segment_flush_duration_seconds",
			Help:    "Duration of segment file flushes in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		},
	)
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	metrics := []prometheus.Collector{
		ScanRecordTotal,
		ScanRecordBytes,
		ReadRecordTotal,
		ReadRecordBytes,
		FlushDuration,
	}
	for _, metric := range metrics {
		if err := registerer.Register(metric); err != nil {
			return err
		}
	}
	return nil
}
