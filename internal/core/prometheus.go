package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PrometheusRecorder exports service and per-well metrics to a Prometheus registerer.
type PrometheusRecorder struct {
	duration    *prometheus.HistogramVec
	observed    *prometheus.CounterVec
	deactivated *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

// NewPrometheusRecorder registers the wellobs collectors with reg. Export
// works when reg is also a prometheus.Gatherer, as *prometheus.Registry is.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wellobs",
			Name:      "operation_duration_seconds",
			Help:      "Duration of well observation service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		observed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellobs",
			Name:      "observations_total",
			Help:      "Observation rows emitted per well.",
		}, []string{"well"}),
		deactivated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellobs",
			Name:      "deactivated_total",
			Help:      "Baseline-active variables skipped because history held a default value.",
		}, []string{"well"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellobs",
			Name:      "skipped_wells_total",
			Help:      "Wells dropped at load time by construction error kind.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{r.duration, r.observed, r.deactivated, r.skipped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	r.gatherer, _ = reg.(prometheus.Gatherer)
	return r, nil
}

// Observe records an operation duration.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	r.duration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// WellStep counts emitted and deactivated rows.
func (r *PrometheusRecorder) WellStep(well string, observed, deactivated int) {
	r.observed.WithLabelValues(well).Add(float64(observed))
	r.deactivated.WithLabelValues(well).Add(float64(deactivated))
}

// WellSkipped counts a well dropped at load time.
func (r *PrometheusRecorder) WellSkipped(_ string, kind string) {
	r.skipped.WithLabelValues(kind).Inc()
}

// Export writes the gathered metrics in the Prometheus text format.
func (r *PrometheusRecorder) Export(w io.Writer) error {
	if r.gatherer == nil {
		return errors.New("prometheus registerer cannot be gathered")
	}
	families, err := r.gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
