package core

import "wellobs/pkg/domain"

var (
	_ domain.ObsSink  = (*ObsData)(nil)
	_ domain.MeasSink = (*MeasData)(nil)
)

// ObsData collects real observation rows across wells for one update step.
type ObsData struct {
	values []float64
	stds   []float64
	keys   []string
}

// NewObsData returns an empty observation container.
func NewObsData() *ObsData { return &ObsData{} }

// Add appends one observation row.
func (o *ObsData) Add(value, std float64, key string) {
	o.values = append(o.values, value)
	o.stds = append(o.stds, std)
	o.keys = append(o.keys, key)
}

// Len returns the number of rows.
func (o *ObsData) Len() int { return len(o.values) }

// Values returns a copy of the observed values.
func (o *ObsData) Values() []float64 { return append([]float64(nil), o.values...) }

// Stds returns a copy of the standard deviations.
func (o *ObsData) Stds() []float64 { return append([]float64(nil), o.stds...) }

// Keys returns a copy of the observation keys.
func (o *ObsData) Keys() []string { return append([]string(nil), o.keys...) }

// Reset empties the container, keeping capacity.
func (o *ObsData) Reset() {
	o.values = o.values[:0]
	o.stds = o.stds[:0]
	o.keys = o.keys[:0]
}

func (o *ObsData) appendFrom(other *ObsData) {
	o.values = append(o.values, other.values...)
	o.stds = append(o.stds, other.stds...)
	o.keys = append(o.keys, other.keys...)
}

// MeasData collects simulated values in observation order.
type MeasData struct {
	values []float64
}

// NewMeasData returns an empty measurement container.
func NewMeasData() *MeasData { return &MeasData{} }

// Add appends one simulated value.
func (m *MeasData) Add(value float64) { m.values = append(m.values, value) }

// Len returns the number of values.
func (m *MeasData) Len() int { return len(m.values) }

// Values returns a copy of the simulated values.
func (m *MeasData) Values() []float64 { return append([]float64(nil), m.values...) }

// Reset empties the container, keeping capacity.
func (m *MeasData) Reset() { m.values = m.values[:0] }

func (m *MeasData) appendFrom(other *MeasData) {
	m.values = append(m.values, other.values...)
}
