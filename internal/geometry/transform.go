package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a rigid placement: an orthonormal rotation (column axes
// expressed in global coordinates) plus a translation.
type Transform struct {
	Translation r3.Vec
	X, Y, Z     r3.Vec
}

// NewTransform builds a placement from the translation, the local z axis and
// an x axis candidate; y completes the right-handed frame. The axes must be
// orthonormal, which callers constructing detectors guarantee.
func NewTransform(translation, z, x r3.Vec) Transform {
	zu := r3.Unit(z)
	xu := r3.Unit(x)
	return Transform{
		Translation: translation,
		X:           xu,
		Y:           r3.Cross(zu, xu),
		Z:           zu,
	}
}

// Identity returns the trivial placement.
func Identity() Transform {
	return Transform{X: r3.Vec{X: 1}, Y: r3.Vec{Y: 1}, Z: r3.Vec{Z: 1}}
}

// ToLocal maps a global point into the local frame.
func (t Transform) ToLocal(p r3.Vec) r3.Vec {
	d := r3.Sub(p, t.Translation)
	return r3.Vec{X: r3.Dot(t.X, d), Y: r3.Dot(t.Y, d), Z: r3.Dot(t.Z, d)}
}

// ToGlobal maps a local point into the global frame.
func (t Transform) ToGlobal(p r3.Vec) r3.Vec {
	return r3.Add(t.Translation, t.RotateToGlobal(p))
}

// RotateToGlobal rotates a local vector into the global frame.
func (t Transform) RotateToGlobal(v r3.Vec) r3.Vec {
	return r3.Add(r3.Add(r3.Scale(v.X, t.X), r3.Scale(v.Y, t.Y)), r3.Scale(v.Z, t.Z))
}

// RotateToLocal rotates a global vector into the local frame.
func (t Transform) RotateToLocal(v r3.Vec) r3.Vec {
	return r3.Vec{X: r3.Dot(t.X, v), Y: r3.Dot(t.Y, v), Z: r3.Dot(t.Z, v)}
}
