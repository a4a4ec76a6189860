package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is a planar surface: local coordinates are cartesian in the
// placement's x/y plane, the z axis is the normal.
type Plane struct {
	id  uint
	trf Transform
}

// NewPlane builds a plane surface from its placement.
func NewPlane(id uint, trf Transform) *Plane {
	return &Plane{id: id, trf: trf}
}

func (p *Plane) ID() uint             { return p.id }
func (p *Plane) Transform() Transform { return p.trf }

func (p *Plane) GlobalToLocal(pt, dir r3.Vec) Local {
	local3 := p.trf.ToLocal(pt)
	return Local{L0: local3.X, L1: local3.Y}
}

func (p *Plane) LocalToGlobal(loc Local, dir r3.Vec) r3.Vec {
	return p.trf.ToGlobal(r3.Vec{X: loc.L0, Y: loc.L1})
}

// ReferenceFrame of a plane is its own placement rotation; the track
// direction plays no role.
func (p *Plane) ReferenceFrame(pos, dir r3.Vec) Frame {
	return Frame{X: p.trf.X, Y: p.trf.Y, Z: p.trf.Z}
}

// PathTo intersects the ray with the plane.
func (p *Plane) PathTo(pos, dir r3.Vec) float64 {
	n := p.trf.Z
	nd := r3.Dot(n, dir)
	if math.Abs(nd) < 1e-12 {
		return math.NaN()
	}
	return r3.Dot(n, r3.Sub(p.trf.Translation, pos)) / nd
}

func (p *Plane) FreeToPathDerivative(pos, dir r3.Vec) *mat.VecDense {
	n := p.trf.Z
	inv := -1 / r3.Dot(n, dir)

	row := mat.NewVecDense(8, nil)
	row.SetVec(0, n.X*inv)
	row.SetVec(1, n.Y*inv)
	row.SetVec(2, n.Z*inv)
	return row
}

func (p *Plane) correctBoundAngleToFreePos(j *mat.Dense, pos, dir r3.Vec) {
	// A planar local frame does not move with the direction.
}
