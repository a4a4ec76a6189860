package track

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestAnglesRoundTrip(t *testing.T) {
	for _, tc := range []struct{ phi, theta float64 }{
		{0, math.Pi / 2},
		{1.2, 0.3},
		{-2.5, 2.8},
		{math.Pi - 0.01, 1.0},
	} {
		d := DirFromAngles(tc.phi, tc.theta)
		if math.Abs(r3.Norm(d)-1) > 1e-12 {
			t.Fatalf("direction not unit: %v", d)
		}
		phi, theta := AnglesFromDir(d)
		if math.Abs(phi-tc.phi) > 1e-12 || math.Abs(theta-tc.theta) > 1e-12 {
			t.Errorf("round trip (%.3f, %.3f) -> (%.3f, %.3f)", tc.phi, tc.theta, phi, theta)
		}
	}
}

func TestFreeVectorRoundTrip(t *testing.T) {
	f := NewFreeParams(r3.Vec{X: 1, Y: -2, Z: 3}, 0.5, r3.Vec{X: 0, Y: 10, Z: 0}, -1)

	if math.Abs(f.QOverP - -0.1) > 1e-15 {
		t.Errorf("qop = %v, want -0.1", f.QOverP)
	}
	if math.Abs(f.P()-10) > 1e-12 {
		t.Errorf("p = %v, want 10", f.P())
	}

	g := FreeFromVector(f.Vector())
	if g != f {
		t.Errorf("vector round trip changed parameters: %+v != %+v", g, f)
	}
}

func TestGeneratorGrid(t *testing.T) {
	g := Generator{ThetaSteps: 5, PhiSteps: 8, P: 10, Charge: -1}
	tracks := g.Tracks()

	if len(tracks) != 40 {
		t.Fatalf("expected 40 tracks, got %d", len(tracks))
	}
	for _, tr := range tracks {
		if math.Abs(r3.Norm(tr.Dir)-1) > 1e-12 {
			t.Fatalf("non-unit direction %v", tr.Dir)
		}
		if tr.Pos != g.Origin {
			t.Fatalf("track does not start at origin")
		}
	}
}

func TestHelixZeroField(t *testing.T) {
	f := NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 1, Y: 2, Z: 3}, -1)
	h := NewHelix(f, r3.Vec{})

	at := h.At(7)
	want := r3.Add(f.Pos, r3.Scale(7, f.Dir))
	if r3.Norm(r3.Sub(at.Pos, want)) > 1e-12 {
		t.Errorf("zero field position %v, want %v", at.Pos, want)
	}
	if at.Dir != f.Dir {
		t.Errorf("zero field changed direction")
	}
}

func TestHelixCircle(t *testing.T) {
	// Transverse track in a z field moves on a circle of radius 1/|qop*B|.
	f := NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 10, Y: 0, Z: 0}, -1)
	b := r3.Vec{Z: 2}
	h := NewHelix(f, b)

	radius := 1 / math.Abs(f.QOverP*r3.Norm(b))
	circumference := 2 * math.Pi * radius

	at := h.At(circumference)
	if r3.Norm(r3.Sub(at.Pos, f.Pos)) > 1e-9*circumference {
		t.Errorf("full turn did not close: %v", at.Pos)
	}
	if r3.Norm(r3.Sub(at.Dir, f.Dir)) > 1e-9 {
		t.Errorf("full turn rotated direction: %v", at.Dir)
	}

	half := h.At(circumference / 2)
	if math.Abs(r3.Norm(r3.Sub(half.Pos, f.Pos))-2*radius) > 1e-9*radius {
		t.Errorf("half turn diameter %v, want %v", r3.Norm(r3.Sub(half.Pos, f.Pos)), 2*radius)
	}
}

func TestHelixJacobianFiniteDifference(t *testing.T) {
	f := NewFreeParams(r3.Vec{X: 0.1, Y: -0.2, Z: 0}, 0, r3.Vec{X: 3, Y: 4, Z: 5}, -1)
	b := r3.Vec{X: 0.5, Z: 2}
	h := NewHelix(f, b)

	const s = 25.0
	j := h.Jacobian(s)

	// Perturb qop and compare the analytic column against central
	// differences; the direction blocks are exact by construction.
	const eps = 1e-6
	fp, fm := f, f
	fp.QOverP += eps
	fm.QOverP -= eps
	pp := NewHelix(fp, b).At(s)
	pm := NewHelix(fm, b).At(s)

	fd := []float64{
		(pp.Pos.X - pm.Pos.X) / (2 * eps),
		(pp.Pos.Y - pm.Pos.Y) / (2 * eps),
		(pp.Pos.Z - pm.Pos.Z) / (2 * eps),
		(pp.Dir.X - pm.Dir.X) / (2 * eps),
		(pp.Dir.Y - pm.Dir.Y) / (2 * eps),
		(pp.Dir.Z - pm.Dir.Z) / (2 * eps),
	}
	rows := []int{FreePos0, FreePos1, FreePos2, FreeDir0, FreeDir1, FreeDir2}
	for i, row := range rows {
		got := j.At(row, FreeQOverP)
		if math.Abs(got-fd[i]) > 1e-4*(1+math.Abs(fd[i])) {
			t.Errorf("qop column row %d: analytic %v, finite difference %v", row, got, fd[i])
		}
	}
}
