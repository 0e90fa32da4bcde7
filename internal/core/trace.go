package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// TraceEntry is one finished span.
type TraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
}

// JSONTracer writes each finished span as one JSON line and keeps a copy.
type JSONTracer struct {
	mu      sync.Mutex
	out     *json.Encoder
	entries []TraceEntry
}

// NewJSONTracer returns a tracer writing to w. A nil w only retains entries.
func NewJSONTracer(w io.Writer) *JSONTracer {
	t := &JSONTracer{}
	if w != nil {
		t.out = json.NewEncoder(w)
	}
	return t
}

// Start opens a span for operation.
func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, entry: TraceEntry{Operation: operation, Start: time.Now().UTC()}}
}

// Entries returns the finished spans in completion order.
func (t *JSONTracer) Entries() []TraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TraceEntry(nil), t.entries...)
}

func (t *JSONTracer) finish(e TraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	if t.out != nil {
		_ = t.out.Encode(e)
	}
}

type jsonSpan struct {
	tracer *JSONTracer
	entry  TraceEntry
}

func (s *jsonSpan) End(err error) {
	e := s.entry
	e.DurationMS = float64(time.Since(e.Start)) / float64(time.Millisecond)
	e.Status = "success"
	if err != nil {
		e.Status = "error"
		e.Error = err.Error()
	}
	s.tracer.finish(e)
}
