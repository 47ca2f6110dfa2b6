package store

import (
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	times := []float64{0, 0.5, 1}
	states := [][]float64{{1}, {0.5}, {0.25}}
	runID, err := st.Save(RunMetadata{
		Problem:        "decay",
		Scheme:         "euler",
		T0:             0,
		TF:             1,
		FiniteElements: 2,
		Terminal:       map[string]float64{"qf0": 0.75},
	}, times, states)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Problem != "decay" || meta.Scheme != "euler" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Terminal["qf0"] != 0.75 {
		t.Errorf("terminal = %v", meta.Terminal)
	}

	gotTimes, gotStates, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory: %v", err)
	}
	if len(gotTimes) != 3 || len(gotStates) != 3 {
		t.Fatalf("loaded %d times, %d rows", len(gotTimes), len(gotStates))
	}
	if gotStates[2][0] != 0.25 {
		t.Errorf("states[2] = %v", gotStates[2])
	}
}

func TestList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty store, got %d runs", len(runs))
	}

	if _, err := st.Save(RunMetadata{Problem: "decay"}, []float64{0}, [][]float64{{1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	runs, err = st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected one run, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	st := New("does-not-exist")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Error("missing directory should read as empty")
	}
}
