package bfield

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Solenoid is a simple axial field model: full strength on axis inside the
// coil, falling off smoothly beyond the coil half length. It is not a field
// map, just enough structure to exercise position-dependent lookups.
type Solenoid struct {
	Bz         float64
	HalfLength float64
}

func NewSolenoid(bz, halfLength float64) Solenoid {
	return Solenoid{Bz: bz, HalfLength: halfLength}
}

func (s Solenoid) At(pos r3.Vec) r3.Vec {
	z := math.Abs(pos.Z)
	if z <= s.HalfLength {
		return r3.Vec{Z: s.Bz}
	}
	over := (z - s.HalfLength) / s.HalfLength
	return r3.Vec{Z: s.Bz / (1 + over*over)}
}
