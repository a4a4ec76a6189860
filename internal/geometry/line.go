package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/track"
)

// Line is a wire-like surface: local coordinates are the signed radial
// distance to the wire and the position along the wire axis (the placement's
// z axis).
type Line struct {
	id  uint
	trf Transform
}

// NewLine builds a line surface from its placement.
func NewLine(id uint, trf Transform) *Line {
	return &Line{id: id, trf: trf}
}

func (l *Line) ID() uint             { return l.id }
func (l *Line) Transform() Transform { return l.trf }

// GlobalToLocal returns (signed radial distance, coordinate along the wire).
// The sign convention: positive left of the wire, negative right of it, as
// seen along the track direction.
func (l *Line) GlobalToLocal(p, dir r3.Vec) Local {
	local3 := l.trf.ToLocal(p)

	z := l.trf.Z
	t := l.trf.Translation
	r := r3.Cross(z, dir)

	sign := 1.0
	if r3.Dot(r, r3.Sub(t, p)) > 0 {
		sign = -1.0
	}
	return Local{
		L0: sign * math.Hypot(local3.X, local3.Y),
		L1: local3.Z,
	}
}

// LocalToGlobal places the local point back into global space using the
// radial direction implied by the track direction.
func (l *Line) LocalToGlobal(loc Local, dir r3.Vec) r3.Vec {
	z := l.trf.Z
	r := r3.Cross(z, dir)
	onAxis := l.trf.ToGlobal(r3.Vec{Z: loc.L1})
	return r3.Add(onAxis, r3.Scale(loc.L0, r3.Unit(r)))
}

// ReferenceFrame: new y = wire axis, new x = unit(y cross dir), new z
// completes the frame. Degenerate when dir is parallel to the wire; the
// NaNs are allowed to propagate (grazing incidence is a physical edge
// state, not an error).
func (l *Line) ReferenceFrame(pos, dir r3.Vec) Frame {
	y := l.trf.Z
	x := r3.Unit(r3.Cross(y, dir))
	return Frame{X: x, Y: y, Z: r3.Cross(x, y)}
}

// PathTo returns the path length to the point of closest approach between
// the track line and the wire.
func (l *Line) PathTo(pos, dir r3.Vec) float64 {
	z := l.trf.Z
	zd := r3.Dot(z, dir)
	denom := 1 - zd*zd
	if math.Abs(denom) < 1e-12 {
		return math.NaN()
	}
	rel := r3.Sub(pos, l.trf.Translation)
	return -r3.Dot(rel, r3.Sub(dir, r3.Scale(zd, z))) / denom
}

// FreeToPathDerivative is the row d(path to closest approach)/d(free state).
func (l *Line) FreeToPathDerivative(pos, dir r3.Vec) *mat.VecDense {
	z := l.trf.Z
	zd := r3.Dot(z, dir)
	norm := 1 / (1 - zd*zd)
	g := r3.Scale(-norm, r3.Sub(dir, r3.Scale(zd, z)))

	row := mat.NewVecDense(8, nil)
	row.SetVec(0, g.X)
	row.SetVec(1, g.Y)
	row.SetVec(2, g.Z)
	return row
}

// correctBoundAngleToFreePos applies the wire-specific coupling: a pure
// direction change moves the local radial coordinate, because the local
// frame origin depends on direction. The direction columns of j must be
// filled before this is called.
func (l *Line) correctBoundAngleToFreePos(j *mat.Dense, pos, dir r3.Vec) {
	loc := l.GlobalToLocal(pos, dir)
	frame := l.ReferenceFrame(pos, dir)

	ipdn := 1 / r3.Dot(dir, frame.Z)
	c := ipdn * loc.L0

	for _, col := range []int{track.BoundPhi, track.BoundTheta} {
		dN := r3.Vec{
			X: j.At(track.FreeDir0, col),
			Y: j.At(track.FreeDir1, col),
			Z: j.At(track.FreeDir2, col),
		}
		yCross := r3.Cross(frame.Y, dN)
		d := r3.Scale(c, r3.Sub(yCross, r3.Scale(r3.Dot(frame.X, yCross), frame.X)))
		j.Set(track.FreePos0, col, d.X)
		j.Set(track.FreePos1, col, d.Y)
		j.Set(track.FreePos2, col, d.Z)
	}
}
