package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/track"
)

func TestPlaneRoundTrip(t *testing.T) {
	trf := NewTransform(r3.Vec{X: 2, Y: -1, Z: 5}, r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1, Y: -1, Z: 0})
	plane := NewPlane(1, trf)
	dir := r3.Unit(r3.Vec{X: 0.2, Y: 0.1, Z: 1})

	for _, loc := range []Local{{0, 0}, {1.5, -2.5}, {-0.3, 0.8}} {
		p := plane.LocalToGlobal(loc, dir)
		back := plane.GlobalToLocal(p, dir)
		assert.InDelta(t, loc.L0, back.L0, 1e-10)
		assert.InDelta(t, loc.L1, back.L1, 1e-10)
	}
}

func TestPlanePathTo(t *testing.T) {
	// Plane normal to z at z=10.
	plane := NewPlane(0, NewTransform(r3.Vec{Z: 10}, r3.Vec{Z: 1}, r3.Vec{X: 1}))

	s := plane.PathTo(r3.Vec{}, r3.Vec{Z: 1})
	assert.InDelta(t, 10.0, s, 1e-12)

	// Oblique incidence lengthens the path.
	d := r3.Unit(r3.Vec{X: 1, Z: 1})
	s = plane.PathTo(r3.Vec{}, d)
	assert.InDelta(t, 10*math.Sqrt2, s, 1e-12)

	// Grazing: no intersection.
	assert.True(t, math.IsNaN(plane.PathTo(r3.Vec{}, r3.Vec{X: 1})))
}

func TestPlaneFreeToPathDerivative(t *testing.T) {
	plane := NewPlane(0, NewTransform(r3.Vec{Z: 10}, r3.Vec{Z: 1}, r3.Vec{X: 1}))
	d := r3.Unit(r3.Vec{X: 1, Z: 1})
	pos := r3.Vec{X: 0.5, Y: 0.1}

	row := plane.FreeToPathDerivative(pos, d)

	// Compare against a finite difference of PathTo in each position
	// component.
	const eps = 1e-7
	for i, delta := range []r3.Vec{{X: eps}, {Y: eps}, {Z: eps}} {
		fd := (plane.PathTo(r3.Add(pos, delta), d) - plane.PathTo(r3.Sub(pos, delta), d)) / (2 * eps)
		assert.InDelta(t, fd, row.AtVec(i), 1e-6)
	}
}

func TestLineFreeToPathDerivative(t *testing.T) {
	line := NewLine(0, Identity())
	d := r3.Unit(r3.Vec{X: 1, Y: 0.3, Z: 0.4})
	pos := r3.Vec{X: -4, Y: 2, Z: 1}

	row := line.FreeToPathDerivative(pos, d)

	const eps = 1e-7
	for i, delta := range []r3.Vec{{X: eps}, {Y: eps}, {Z: eps}} {
		fd := (line.PathTo(r3.Add(pos, delta), d) - line.PathTo(r3.Sub(pos, delta), d)) / (2 * eps)
		assert.InDelta(t, fd, row.AtVec(i), 1e-6)
	}
}

func TestPlaneJacobianBlocks(t *testing.T) {
	plane := NewPlane(0, Identity())
	f := track.NewFreeParams(r3.Vec{X: 0.5, Y: -0.5}, 0, r3.Vec{X: 1, Y: 2, Z: 5}, -1)

	b2f := BoundToFreeJacobian(plane, FreeToBoundVector(plane, f))
	f2b := FreeToBoundJacobian(plane, f)

	// For a plane the local frame equals the placement: the product of the
	// position blocks is the 2x2 identity.
	var prod [2][2]float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 3; k++ {
				prod[i][j] += f2b.At(i, track.FreePos0+k) * b2f.At(track.FreePos0+k, j)
			}
		}
	}
	assert.InDelta(t, 1, prod[0][0], 1e-12)
	assert.InDelta(t, 1, prod[1][1], 1e-12)
	assert.InDelta(t, 0, prod[0][1], 1e-12)
	assert.InDelta(t, 0, prod[1][0], 1e-12)

	// Angle and position never couple on a plane.
	for _, row := range []int{track.FreePos0, track.FreePos1, track.FreePos2} {
		assert.Equal(t, 0.0, b2f.At(row, track.BoundPhi))
		assert.Equal(t, 0.0, b2f.At(row, track.BoundTheta))
	}
}
