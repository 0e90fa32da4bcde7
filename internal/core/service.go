package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wellobs/internal/blob"
	"wellobs/pkg/domain"
	"wellobs/pkg/wellobs"
)

// ErrMissingVariable is returned by Assimilate when a member state lacks a
// variable that has a real observation at the report step.
var ErrMissingVariable = errors.New("simulated value missing")

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithLogger routes service logs to logger. A nil logger discards output.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(s *Service) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		s.logger = logger
	}
}

// WithMetricsRecorder installs an operation metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithWellMetrics installs a per-well metrics sink.
func WithWellMetrics(m WellMetrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.wellMetrics = m
		}
	}
}

// WithTracer installs a tracer around service operations.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithWorkers bounds the number of wells processed concurrently. Zero means unbounded.
func WithWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n >= 0 {
			s.workers = n
		}
	}
}

// WithSetOptions passes options to every Set the service builds.
func WithSetOptions(opts ...wellobs.Option) ServiceOption {
	return func(s *Service) { s.setOpts = append(s.setOpts, opts...) }
}

type wellSlot struct {
	name string
	set  *wellobs.Set
}

// Service owns the observation sets of every cataloged well and assembles
// one update batch per report step.
type Service struct {
	history     domain.HistoryStore
	logger      *log.Logger
	metrics     MetricsRecorder
	wellMetrics WellMetrics
	tracer      Tracer
	workers     int
	setOpts     []wellobs.Option

	mu    sync.Mutex
	wells []wellSlot
}

// NewService constructs a Service reading history from hist.
func NewService(hist domain.HistoryStore, opts ...ServiceOption) *Service {
	s := &Service{
		history:     hist,
		logger:      log.New(io.Discard, "", 0),
		metrics:     noopMetrics{},
		wellMetrics: noopMetrics{},
		tracer:      noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WellError records a well dropped at load time.
type WellError struct {
	Well string
	Err  error
}

// LoadReport summarises a catalog load.
type LoadReport struct {
	Loaded  []string
	Skipped []WellError
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := fn(ctx)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	span.End(err)
	return err
}

// LoadCatalog reads the catalog at key and builds one observation set per
// well. Wells whose spec cannot be read or parsed are skipped and reported;
// only a missing or invalid catalog fails the call. Previously loaded sets
// are closed and replaced.
func (s *Service) LoadCatalog(ctx context.Context, store blob.Store, key string) (LoadReport, error) {
	var report LoadReport
	err := s.run(ctx, "load_catalog", func(ctx context.Context) error {
		data, err := blob.ReadAll(ctx, store, key)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		catalog, err := ParseCatalog(data)
		if err != nil {
			return err
		}
		slots := make([]wellSlot, 0, len(catalog.Wells))
		for _, entry := range catalog.Wells {
			set, err := s.buildSet(ctx, store, entry)
			if err != nil {
				kind := wellobs.KindOf(err)
				s.logger.Printf("skip well %s: %v", entry.Name, err)
				s.wellMetrics.WellSkipped(entry.Name, string(kind))
				report.Skipped = append(report.Skipped, WellError{Well: entry.Name, Err: err})
				continue
			}
			for _, c := range set.Collisions() {
				s.logger.Printf("well %s: spec rows %v share observation key %q", entry.Name, c.Indices, c.Key)
			}
			slots = append(slots, wellSlot{name: entry.Name, set: set})
			report.Loaded = append(report.Loaded, entry.Name)
		}

		s.mu.Lock()
		old := s.wells
		s.wells = slots
		s.mu.Unlock()
		_ = closeSlots(old)
		s.logger.Printf("catalog %s: %d wells loaded, %d skipped", key, len(report.Loaded), len(report.Skipped))
		return nil
	})
	if err != nil {
		return LoadReport{}, err
	}
	return report, nil
}

func (s *Service) buildSet(ctx context.Context, store blob.Store, entry WellEntry) (*wellobs.Set, error) {
	reg := NewWellConfig(entry.Name, entry.Variables)
	switch {
	case entry.Spec != "":
		data, err := blob.ReadAll(ctx, store, entry.Spec)
		if err != nil {
			return nil, &wellobs.ConstructionError{
				Kind: wellobs.KindSourceUnreadable,
				Well: entry.Name,
				Text: entry.Spec,
				Err:  err,
			}
		}
		return wellobs.Parse(bytes.NewReader(data), reg, s.history, s.setOpts...)
	case len(entry.Observe) > 0:
		return wellobs.NewFromVars(reg, entry.Observe, s.history, s.setOpts...)
	default:
		return wellobs.NewFromVars(reg, reg.Vars(), s.history, s.setOpts...)
	}
}

// Wells returns the loaded well names in catalog order.
func (s *Service) Wells() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.wells))
	for i, w := range s.wells {
		out[i] = w.name
	}
	return out
}

// Set returns the observation set loaded for well.
func (s *Service) Set(well string) (*wellobs.Set, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wells {
		if w.name == well {
			return w.set, true
		}
	}
	return nil, false
}

// WellStep summarises one well's contribution to a Batch.
type WellStep struct {
	Well        string
	Rows        int
	Deactivated int
}

// Batch is the assembled update input for one report step: observation rows
// and the member's simulated values, aligned row for row.
type Batch struct {
	ReportStep int
	Obs        *ObsData
	Meas       *MeasData
	Wells      []WellStep
}

// Residuals returns observed minus simulated for every row, or nil for an
// empty batch.
func (b Batch) Residuals() []float64 {
	if b.Obs == nil || b.Meas == nil {
		return nil
	}
	obs := b.Obs.values
	sim := b.Meas.values
	out := make([]float64, len(obs))
	for i := range obs {
		out[i] = obs[i] - sim[i]
	}
	return out
}

type wellResult struct {
	obs         ObsData
	meas        MeasData
	deactivated int
}

// Assimilate collects observations at reportStep from every loaded well and
// measures member against them. Wells are processed concurrently; rows are
// merged in catalog order.
func (s *Service) Assimilate(ctx context.Context, reportStep int, member *MemberState) (Batch, error) {
	if member == nil {
		return Batch{}, errors.New("assimilate: member state required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := Batch{ReportStep: reportStep, Obs: NewObsData(), Meas: NewMeasData()}
	err := s.run(ctx, "assimilate", func(ctx context.Context) error {
		results := make([]wellResult, len(s.wells))
		g, gctx := errgroup.WithContext(ctx)
		if s.workers > 0 {
			g.SetLimit(s.workers)
		}
		for i, slot := range s.wells {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				state, ok := member.Well(slot.name)
				if !ok {
					return fmt.Errorf("assimilate: no simulated state for well %s", slot.name)
				}
				res := &results[i]
				step := slot.set.GetObservations(reportStep, &res.obs)
				for _, idx := range step.Active() {
					if v := slot.set.Spec(idx).Variable; !member.Has(slot.name, v) {
						return fmt.Errorf("assimilate: well %s: %w: %s", slot.name, ErrMissingVariable, v)
					}
				}
				if err := slot.set.Measure(step, state, &res.meas); err != nil {
					return fmt.Errorf("assimilate: %w", err)
				}
				res.deactivated = countActive(slot.set.Baseline()) - step.Len()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, slot := range s.wells {
			res := &results[i]
			batch.Obs.appendFrom(&res.obs)
			batch.Meas.appendFrom(&res.meas)
			batch.Wells = append(batch.Wells, WellStep{Well: slot.name, Rows: res.obs.Len(), Deactivated: res.deactivated})
			s.wellMetrics.WellStep(slot.name, res.obs.Len(), res.deactivated)
		}
		if batch.Obs.Len() != batch.Meas.Len() {
			return fmt.Errorf("assimilate: %d observations but %d measurements", batch.Obs.Len(), batch.Meas.Len())
		}
		return nil
	})
	if err != nil {
		return Batch{}, err
	}
	s.logger.Printf("report step %d: %d observations from %d wells", reportStep, batch.Obs.Len(), len(batch.Wells))
	return batch, nil
}

// Close releases every loaded observation set.
func (s *Service) Close() error {
	s.mu.Lock()
	old := s.wells
	s.wells = nil
	s.mu.Unlock()
	return closeSlots(old)
}

func closeSlots(slots []wellSlot) error {
	var errs []error
	for _, w := range slots {
		if err := w.set.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close well %s: %w", w.name, err))
		}
	}
	return errors.Join(errs...)
}

func countActive(mask []bool) int {
	n := 0
	for _, on := range mask {
		if on {
			n++
		}
	}
	return n
}
