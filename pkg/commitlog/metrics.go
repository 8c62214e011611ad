package commitlog

import (
	"github.com/prometheus/client_golang/prometheus"

	intcommitlog "github.com/backbone81/durable-log/internal/commitlog"
)

// RegisterMetrics registers all metrics collectors with the given prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	return intcommitlog.RegisterMetrics(registerer)
}
