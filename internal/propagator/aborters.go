package propagator

import (
	"errors"
	"math"

	"github.com/san-kum/trackprop/internal/stepper"
)

// ErrPathLimit reports that a track used up its path budget.
var ErrPathLimit = errors.New("path limit exhausted")

// PathLimitAborter ends the propagation once the accumulated path length
// reaches the budget. Until then it feeds the remaining budget into the step
// constraints so the stepper never overshoots the limit.
type PathLimitAborter struct {
	Limit float64
}

func (a PathLimitAborter) Run(ps *State) error {
	remaining := a.Limit - math.Abs(ps.Stepping.PathLength)
	if remaining <= OnSurfaceTolerance {
		return ErrPathLimit
	}
	ps.Stepping.Constraints.Set(stepper.ConstraintAborter, remaining)
	return nil
}
