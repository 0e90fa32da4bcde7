package core

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics backend names accepted by OpenMetrics.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
)

// MetricsBackend records service and per-well metrics and can dump them.
type MetricsBackend interface {
	MetricsRecorder
	WellMetrics
	Export(w io.Writer) error
}

var (
	_ MetricsBackend = (*PrometheusRecorder)(nil)
	_ MetricsBackend = (*ExpvarRecorder)(nil)
)

// OpenMetrics selects the metrics backend named by driver. Prometheus
// collectors go to a private registry.
func OpenMetrics(driver string) (MetricsBackend, error) {
	switch driver {
	case "", MetricsPrometheus:
		rec, err := NewPrometheusRecorder(prometheus.NewRegistry())
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		return rec, nil
	case MetricsExpvar:
		return NewExpvarRecorder("wellobs"), nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", driver)
	}
}
