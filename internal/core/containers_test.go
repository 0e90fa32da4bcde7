package core

import "testing"

func TestObsDataAppendAndReset(t *testing.T) {
	obs := NewObsData()
	obs.Add(120, 1, "OP_1/WOPR")
	obs.Add(0.4, 1, "OP_1/WWCT")
	if obs.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", obs.Len())
	}
	keys := obs.Keys()
	keys[0] = "mutated"
	if obs.Keys()[0] != "OP_1/WOPR" {
		t.Fatalf("Keys must return a copy")
	}
	if got := obs.Values(); got[0] != 120 || got[1] != 0.4 {
		t.Fatalf("unexpected values %v", got)
	}
	if got := obs.Stds(); got[0] != 1 || got[1] != 1 {
		t.Fatalf("unexpected stds %v", got)
	}

	other := NewObsData()
	other.Add(80, 2, "OP_2/WOPR")
	obs.appendFrom(other)
	if obs.Len() != 3 || obs.Keys()[2] != "OP_2/WOPR" {
		t.Fatalf("appendFrom lost rows: %v", obs.Keys())
	}

	obs.Reset()
	if obs.Len() != 0 || len(obs.Stds()) != 0 || len(obs.Keys()) != 0 {
		t.Fatalf("reset left rows behind")
	}
}

func TestMeasDataAppendAndReset(t *testing.T) {
	meas := NewMeasData()
	meas.Add(118.3)
	other := NewMeasData()
	other.Add(82)
	meas.appendFrom(other)
	if got := meas.Values(); len(got) != 2 || got[0] != 118.3 || got[1] != 82 {
		t.Fatalf("unexpected values %v", got)
	}
	meas.Reset()
	if meas.Len() != 0 {
		t.Fatalf("reset left %d values", meas.Len())
	}
}
