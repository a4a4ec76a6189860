package export

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/propagator"
)

func sampleSteps() []propagator.StepRecord {
	var steps []propagator.StepRecord
	for i := 0; i <= 10; i++ {
		x := float64(i) * 0.3
		surf := -1
		if i == 5 || i == 10 {
			surf = i / 5
		}
		steps = append(steps, propagator.StepRecord{
			PathLength: x,
			StepSize:   0.3,
			Pos:        r3.Vec{X: x, Y: 0.1 * x * x},
			Dir:        r3.Vec{X: 1},
			SurfaceID:  surf,
		})
	}
	return steps
}

func TestTrajectoryPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.png")
	if err := TrajectoryPlot(path, sampleSteps()); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty plot file")
	}
}

func TestStepSizePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steps.png")
	if err := StepSizePlot(path, sampleSteps()); err != nil {
		t.Fatal(err)
	}
}

func TestPlotNoSteps(t *testing.T) {
	if err := TrajectoryPlot("unused.png", nil); err == nil {
		t.Error("expected error for empty run")
	}
	if err := StepSizePlot("unused.png", nil); err == nil {
		t.Error("expected error for empty run")
	}
}
