package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// ExpvarRecorder keeps service metrics in expvar maps published under one
// name: "duration_ms_total" per operation, "results_total" per operation and
// status, and "wells_total" per well and counter.
type ExpvarRecorder struct {
	name      string
	durations *expvar.Map
	results   *expvar.Map
	wells     *expvar.Map
	mu        sync.Mutex
}

// ExpvarSnapshot is a decoded copy of an ExpvarRecorder.
type ExpvarSnapshot struct {
	DurationsMS map[string]float64          `json:"duration_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Wells       map[string]map[string]int64 `json:"wells_total"`
}

// NewExpvarRecorder publishes a recorder under name, or under a generated
// wellobs_metrics_<n> name when name is empty or already taken.
func NewExpvarRecorder(name string) *ExpvarRecorder {
	if name == "" || expvar.Get(name) != nil {
		name = fmt.Sprintf("wellobs_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	r := &ExpvarRecorder{
		name:      name,
		durations: new(expvar.Map).Init(),
		results:   new(expvar.Map).Init(),
		wells:     new(expvar.Map).Init(),
	}
	root := new(expvar.Map).Init()
	root.Set("duration_ms_total", r.durations)
	root.Set("results_total", r.results)
	root.Set("wells_total", r.wells)
	expvar.Publish(name, root)
	return r
}

// Name returns the expvar name the recorder is published under.
func (r *ExpvarRecorder) Name() string { return r.name }

// Observe records a service operation outcome.
func (r *ExpvarRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.AddFloat(operation, float64(duration)/float64(time.Millisecond))
	r.sub(r.results, operation).Add(status, 1)
}

// WellStep adds per-well row counts.
func (r *ExpvarRecorder) WellStep(well string, observed, deactivated int) {
	counts := r.sub(r.wells, well)
	counts.Add("observed", int64(observed))
	counts.Add("deactivated", int64(deactivated))
}

// WellSkipped counts a well dropped at load time.
func (r *ExpvarRecorder) WellSkipped(well, kind string) {
	r.sub(r.wells, well).Add("skipped_"+kind, 1)
}

// sub returns the nested map stored under key, creating it on first use.
func (r *ExpvarRecorder) sub(parent *expvar.Map, key string) *expvar.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := parent.Get(key).(*expvar.Map); ok {
		return m
	}
	m := new(expvar.Map).Init()
	parent.Set(key, m)
	return m
}

// Snapshot reads the current counter values.
func (r *ExpvarRecorder) Snapshot() ExpvarSnapshot {
	snap := ExpvarSnapshot{
		DurationsMS: make(map[string]float64),
		Results:     nestedInts(r.results),
		Wells:       nestedInts(r.wells),
	}
	r.durations.Do(func(kv expvar.KeyValue) {
		if f, ok := kv.Value.(*expvar.Float); ok {
			snap.DurationsMS[kv.Key] = f.Value()
		}
	})
	return snap
}

// Export writes the snapshot as indented JSON.
func (r *ExpvarRecorder) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Snapshot())
}

func nestedInts(m *expvar.Map) map[string]map[string]int64 {
	out := make(map[string]map[string]int64)
	m.Do(func(outer expvar.KeyValue) {
		inner, ok := outer.Value.(*expvar.Map)
		if !ok {
			return
		}
		counts := make(map[string]int64)
		inner.Do(func(kv expvar.KeyValue) {
			if n, ok := kv.Value.(*expvar.Int); ok {
				counts[kv.Key] = n.Value()
			}
		})
		out[outer.Key] = counts
	})
	return out
}
