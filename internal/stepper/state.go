// Package stepper implements adaptive track stepping through a magnetic
// field with full transport of the 8x8 free Jacobian.
package stepper

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trackprop/internal/geometry"
	"github.com/san-kum/trackprop/internal/track"
)

// State is the mutable state of one in-flight propagation leg. It is owned
// exclusively by a single propagation and never shared.
type State struct {
	Track track.FreeParams

	// JacTransport accumulates the per-step transport matrices by left
	// multiplication. It is reset to identity exactly when a new bound
	// state is adopted.
	JacTransport *mat.Dense
	// Derivative is d(free state)/d(path length) at the current point.
	Derivative *mat.VecDense
	// JacToGlobal is the bound-to-free Jacobian of the departure surface.
	JacToGlobal *mat.Dense
	// BoundCov is the bound covariance being transported.
	BoundCov *mat.Dense
	// Bound is the most recent full bound state, written by the parameter
	// transporter when a surface is reached.
	Bound track.BoundParams

	Dir         Direction
	Constraints ConstrainedStep
	PathLength  float64
	// StepSize is the next proposed step; its sign encodes the travel
	// direction. The stepper overwrites it with the accepted size.
	StepSize float64
}

// NewState starts a propagation leg from free parameters.
func NewState(t track.FreeParams) *State {
	return &State{
		Track:        t,
		JacTransport: eye(track.FreeSize),
		Derivative:   mat.NewVecDense(track.FreeSize, nil),
		JacToGlobal:  mat.NewDense(track.FreeSize, track.BoundSize, nil),
		BoundCov:     mat.NewDense(track.BoundSize, track.BoundSize, nil),
		Dir:          Forward,
		Constraints:  NewConstrainedStep(),
	}
}

// NewBoundState starts a propagation leg from a bound state on a surface,
// seeding the departure Jacobian and covariance.
func NewBoundState(b track.BoundParams, surf geometry.Surface) *State {
	s := NewState(geometry.BoundToFreeParams(surf, b.Vector))
	s.Bound = b
	s.BoundCov.Copy(b.Covariance)
	s.JacToGlobal = geometry.BoundToFreeJacobian(surf, b.Vector)
	return s
}

// Reset adopts a new bound state mid-propagation: the departure Jacobian is
// rebuilt on the new surface, the transport Jacobian returns to identity and
// the path derivative is cleared.
func (s *State) Reset(b track.BoundParams, surf geometry.Surface) {
	s.Bound = b
	s.BoundCov.Copy(b.Covariance)
	s.JacToGlobal = geometry.BoundToFreeJacobian(surf, b.Vector)
	s.JacTransport = eye(track.FreeSize)
	s.Derivative = mat.NewVecDense(track.FreeSize, nil)
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Error reports a stepping failure: the step size controller could not reach
// the tolerance within its budget.
type Error struct {
	PathLength float64
	StepSize   float64
	Trials     int
	Reason     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("step failed at path %.4f (h=%.3e, %d trials): %s",
		e.PathLength, e.StepSize, e.Trials, e.Reason)
}
