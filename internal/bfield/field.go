// Package bfield provides magnetic field models for track propagation.
// Providers must be pure functions of position: concurrent propagations
// share them without synchronization.
package bfield

import "gonum.org/v1/gonum/spatial/r3"

// Provider samples the magnetic field at a global position. It is called up
// to four times per stepper trial.
type Provider interface {
	At(pos r3.Vec) r3.Vec
}

// Constant is a homogeneous field; the zero value is the field-free vacuum.
type Constant struct {
	B r3.Vec
}

func (c Constant) At(pos r3.Vec) r3.Vec { return c.B }
