package wellobs

import (
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"wellobs/pkg/domain"
)

func exampleSet(t *testing.T, hist *fakeHistory, opts ...Option) *Set {
	t.Helper()
	reg := newRegistry("OP_1", "WOPR", "WWCT", "WBHP")
	set, err := Parse(strings.NewReader(exampleSpec), reg, hist, opts...)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return set
}

func TestGetObservationsAndMeasureExample(t *testing.T) {
	hist := newHistory()
	hist.set(4, "WOPR", 120.0, false)
	hist.set(4, "WWCT", 0, true)
	hist.set(4, "WBHP", 250.0, false)
	set := exampleSet(t, hist)

	obs := &obsSink{}
	step := set.GetObservations(4, obs)
	if len(obs.rows) != 1 {
		t.Fatalf("expected 1 observation row, got %+v", obs.rows)
	}
	row := obs.rows[0]
	if row.value != 120.0 || row.std != AssumedStd || row.key != "OP_1/WOPR" {
		t.Fatalf("unexpected row %+v", row)
	}
	current := set.CurrentActive()
	if !current[0] || current[1] || current[2] {
		t.Fatalf("unexpected current mask %v", current)
	}
	if hist.lookups != 2 {
		t.Fatalf("expected inactive WBHP to be skipped, got %d lookups", hist.lookups)
	}

	meas := &measSink{}
	if err := set.Measure(step, mapState{"WOPR": 118.3, "WWCT": 0.4, "WBHP": 240}, meas); err != nil {
		t.Fatalf("measure: %v", err)
	}
	if len(meas.values) != 1 || meas.values[0] != 118.3 {
		t.Fatalf("expected [118.3], got %v", meas.values)
	}
	if step.ReportStep() != 4 || step.Len() != 1 || step.Active()[0] != 0 {
		t.Fatalf("unexpected step %+v", step)
	}
}

func TestCurrentActiveNarrowsBaselineEveryStep(t *testing.T) {
	hist := newHistory()
	hist.set(1, "WOPR", 10, false)
	hist.set(1, "WWCT", 0.1, false)
	hist.set(1, "WBHP", 200, false)
	hist.set(2, "WWCT", 0.2, false)
	set := exampleSet(t, hist)
	baseline := set.Baseline()

	for _, step := range []int{0, 1, 2, 1, 3} {
		obs := &obsSink{}
		st := set.GetObservations(step, obs)
		current := set.CurrentActive()
		emitted := 0
		for i := range current {
			if current[i] && !baseline[i] {
				t.Fatalf("step %d: index %d active outside baseline", step, i)
			}
			if current[i] {
				emitted++
			}
		}
		if emitted != len(obs.rows) || emitted != st.Len() {
			t.Fatalf("step %d: mask has %d active, sink has %d rows, step has %d", step, emitted, len(obs.rows), st.Len())
		}
	}

	obs := &obsSink{}
	set.GetObservations(1, obs)
	if got := set.CurrentActive(); !got[0] || !got[1] || got[2] {
		t.Fatalf("expected baseline restored before narrowing, got %v", got)
	}
}

func TestMeasureMatchesObservationOrder(t *testing.T) {
	reg := newRegistry("P2", "A", "B", "C", "D")
	hist := newHistory()
	hist.set(7, "A", 1, false)
	hist.set(7, "B", 2, true)
	hist.set(7, "C", 3, false)
	hist.set(7, "D", 4, false)
	set, err := NewFromVars(reg, []string{"A", "B", "C", "D"}, hist)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	obs := &obsSink{}
	step := set.GetObservations(7, obs)
	meas := &measSink{}
	if err := set.Measure(step, mapState{"A": 10, "B": 20, "C": 30, "D": 40}, meas); err != nil {
		t.Fatalf("measure: %v", err)
	}
	if len(obs.rows) != len(meas.values) {
		t.Fatalf("length mismatch: %d observations vs %d measurements", len(obs.rows), len(meas.values))
	}
	wantKeys := []string{"P2/A", "P2/C", "P2/D"}
	wantMeas := []float64{10, 30, 40}
	for i := range wantKeys {
		if obs.rows[i].key != wantKeys[i] || meas.values[i] != wantMeas[i] {
			t.Fatalf("row %d: got key %s meas %v", i, obs.rows[i].key, meas.values[i])
		}
	}

	legacy := &measSink{}
	set.MeasureCurrent(mapState{"A": 10, "B": 20, "C": 30, "D": 40}, legacy)
	if len(legacy.values) != 3 || legacy.values[1] != 30 {
		t.Fatalf("unexpected legacy measurements %v", legacy.values)
	}
}

func TestMeasureRejectsStaleStep(t *testing.T) {
	hist := newHistory()
	hist.set(1, "WOPR", 10, false)
	hist.set(2, "WOPR", 11, false)
	hist.set(2, "WWCT", 0.3, false)
	set := exampleSet(t, hist)

	first := set.GetObservations(1, &obsSink{})
	set.GetObservations(2, &obsSink{})

	meas := &measSink{}
	err := set.Measure(first, mapState{"WOPR": 1}, meas)
	if !errors.Is(err, ErrStaleStep) {
		t.Fatalf("expected ErrStaleStep, got %v", err)
	}
	if len(meas.values) != 0 {
		t.Fatalf("expected nothing appended on error, got %v", meas.values)
	}

	if err := set.Measure(Step{}, mapState{}, meas); !errors.Is(err, ErrStaleStep) {
		t.Fatalf("expected zero step to be stale, got %v", err)
	}

	other := exampleSet(t, hist)
	foreign := other.GetObservations(2, &obsSink{})
	if err := set.Measure(foreign, mapState{}, meas); !errors.Is(err, ErrStaleStep) {
		t.Fatalf("expected step from another set to be stale, got %v", err)
	}
}

func TestMeasureRejectsStateFromOtherStep(t *testing.T) {
	hist := newHistory()
	hist.set(3, "WOPR", 10, false)
	set := exampleSet(t, hist)
	step := set.GetObservations(3, &obsSink{})

	meas := &measSink{}
	err := set.Measure(step, steppedState{mapState: mapState{"WOPR": 9}, step: 4}, meas)
	if !errors.Is(err, ErrStepMismatch) {
		t.Fatalf("expected ErrStepMismatch, got %v", err)
	}
	if len(meas.values) != 0 {
		t.Fatalf("expected nothing appended, got %v", meas.values)
	}
	if err := set.Measure(step, steppedState{mapState: mapState{"WOPR": 9}, step: 3}, meas); err != nil {
		t.Fatalf("measure: %v", err)
	}
	if len(meas.values) != 1 || meas.values[0] != 9 {
		t.Fatalf("unexpected measurements %v", meas.values)
	}
}

func TestDerivedStd(t *testing.T) {
	reg := newRegistry("W", "A", "B", "C")
	hist := newHistory()
	hist.set(1, "A", -50, false)
	hist.set(1, "B", -50, false)
	hist.set(1, "C", 10, false)
	src := "A 1 0 2.5 0.1\nB 1 1 2.5 0.1\nC 1 2 2.5 0.1\n"
	set, err := Parse(strings.NewReader(src), reg, hist, WithDerivedStd())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	obs := &obsSink{}
	set.GetObservations(1, obs)
	want := []float64{2.5, 5, 2.5}
	for i, w := range want {
		if math.Abs(obs.rows[i].std-w) > 1e-12 {
			t.Fatalf("row %d: expected std %v, got %v", i, w, obs.rows[i].std)
		}
	}
}

func TestSpecStd(t *testing.T) {
	spec := Spec{ErrorMode: domain.ErrorModeRelMinAbs, AbsStd: 1, RelStd: 0.5}
	if spec.Std(10) != 5 {
		t.Fatalf("expected relative std to win, got %v", spec.Std(10))
	}
	if spec.Std(1) != 1 {
		t.Fatalf("expected absolute floor, got %v", spec.Std(1))
	}
}

func TestObsKey(t *testing.T) {
	cases := []struct {
		well, variable, want string
	}{
		{"OP_1", "WOPR", "OP_1/WOPR"},
		{"PRODUCER_12", "WOPRH", "PRODUCER_12/WOPR"},
		{"ABCDEFGHIJKLMNO", "WOPR", "ABCDEFGHIJKLMNO/"},
		{"ABCDEFGHIJKLMNOPQRST", "WOPR", "ABCDEFGHIJKLMNO/"},
		{"W", "VARIABLE_NAME_TOO_LONG", "W/VARIABLE_NAME_"},
		{"ÅÅÅÅÅÅÅÅ", "WOPR", "ÅÅÅÅÅÅÅ/W"},
		{"OP_1", "ABCDEFGHIJØ", "OP_1/ABCDEFGHIJ"},
		{"OP_1", "VÆRDI_ØLJE_RATE", "OP_1/VÆRDI_ØLJ"},
	}
	for _, tc := range cases {
		got := ObsKey(tc.well, tc.variable)
		if got != tc.want {
			t.Fatalf("ObsKey(%q, %q) = %q, want %q", tc.well, tc.variable, got, tc.want)
		}
		if len(got) > KeyWidth {
			t.Fatalf("key %q exceeds width", got)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("key %q splits a character", got)
		}
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	hist := newHistory()
	hist.set(1, "WOPR", 10, false)
	set := exampleSet(t, hist)
	step := set.GetObservations(1, &obsSink{})

	if err := set.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if set.Len() != 0 || len(set.Keys()) != 0 {
		t.Fatalf("expected owned data released")
	}
	if err := set.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on second close, got %v", err)
	}
	obs := &obsSink{}
	if st := set.GetObservations(1, obs); st.Len() != 0 || len(obs.rows) != 0 {
		t.Fatalf("expected no observations after close")
	}
	if err := set.Measure(step, mapState{}, &measSink{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from measure, got %v", err)
	}
	if hist.lookups != 2 {
		t.Fatalf("expected history untouched after close, got %d lookups", hist.lookups)
	}
}
