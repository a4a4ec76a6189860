package storage

import (
	"bytes"
	"encoding/json"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/ensemble"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/track"
)

func sampleSteps() []propagator.StepRecord {
	return []propagator.StepRecord{
		{PathLength: 0, StepSize: 0, Pos: r3.Vec{}, Dir: r3.Vec{X: 1}, SurfaceID: -1},
		{PathLength: 0.5, StepSize: 0.5, Pos: r3.Vec{X: 0.5}, Dir: r3.Vec{X: 1}, SurfaceID: -1},
		{PathLength: 1, StepSize: 0.5, Pos: r3.Vec{X: 1}, Dir: r3.Vec{X: 1}, SurfaceID: 1},
	}
}

func sampleResults() []ensemble.Result {
	return []ensemble.Result{
		{Index: 0, PathLength: 1, Steps: 2,
			Bound: track.NewBoundParams(1, 0.1, -0.2, 0, 1.5, 1, 1, nil)},
		{Index: 1, Err: propagator.ErrStalled},
	}
}

func TestSaveLoadRun(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	meta := RunMetadata{Label: "test", Field: "constant", Planes: 3}
	id, err := store.SaveRun(meta, sampleSteps(), sampleResults())
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Label != "test" || loaded.Field != "constant" {
		t.Errorf("metadata mismatch: %+v", loaded)
	}
	if loaded.Tracks != 2 || loaded.Succeeded != 1 {
		t.Errorf("expected 2 tracks 1 succeeded, got %d/%d", loaded.Tracks, loaded.Succeeded)
	}

	steps, err := store.LoadSteps(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[2].SurfaceID != 1 {
		t.Errorf("last step surface %d, want 1", steps[2].SurfaceID)
	}
	if steps[1].Pos.X != 0.5 {
		t.Errorf("step position %v, want 0.5", steps[1].Pos.X)
	}
}

func TestList(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("fresh store lists %d runs", len(runs))
	}

	for _, label := range []string{"a", "b"} {
		if _, err := store.SaveRun(RunMetadata{Label: label}, nil, nil); err != nil {
			t.Fatal(err)
		}
	}
	runs, err = store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestLoadStepsMissing(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	id, err := store.SaveRun(RunMetadata{Label: "no steps"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	steps, err := store.LoadSteps(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 0 {
		t.Errorf("expected no steps, got %d", len(steps))
	}
}

func TestExportJSON(t *testing.T) {
	meta := &RunMetadata{ID: "abc", Label: "export", Planes: 3}
	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, sampleSteps()); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Steps != 3 || len(data.Positions) != 3 {
		t.Errorf("export carries %d/%d steps, want 3", data.Steps, len(data.Positions))
	}
	if data.Surfaces[2] != 1 {
		t.Errorf("surface id %d, want 1", data.Surfaces[2])
	}
}
