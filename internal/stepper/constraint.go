package stepper

import "math"

// Direction is the travel direction along the track.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Constraint names one source of an upper bound on the step size.
type Constraint int

const (
	ConstraintAccuracy Constraint = iota
	ConstraintActor
	ConstraintAborter
	ConstraintUser
	numConstraints
)

// Unconstrained is the sentinel magnitude of a released bound.
const Unconstrained = math.MaxFloat64

// ConstrainedStep is a registry of named step-size bounds. Bounds are stored
// as magnitudes; the travel sign is applied only when queried.
type ConstrainedStep struct {
	sizes [numConstraints]float64
}

// NewConstrainedStep returns a registry with every bound released.
func NewConstrainedStep() ConstrainedStep {
	var c ConstrainedStep
	for i := range c.sizes {
		c.sizes[i] = Unconstrained
	}
	return c
}

// Set overwrites the named bound with the magnitude of v.
func (c *ConstrainedStep) Set(t Constraint, v float64) {
	c.sizes[t] = math.Abs(v)
}

// Release resets the named bound to the unconstrained sentinel.
func (c *ConstrainedStep) Release(t Constraint) {
	c.sizes[t] = Unconstrained
}

// Size returns the tightest active bound, signed for the travel direction.
func (c *ConstrainedStep) Size(d Direction) float64 {
	min := c.sizes[0]
	for _, s := range c.sizes[1:] {
		if s < min {
			min = s
		}
	}
	return float64(d) * min
}
