package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Local is a 2D point in a surface's own coordinate system.
type Local struct {
	L0, L1 float64
}

// Frame is an orthonormal basis built per surface type from the surface
// placement and the track direction. It only exists to assemble Jacobian
// blocks and is never stored.
type Frame struct {
	X, Y, Z r3.Vec
}

// Degenerate reports whether the frame construction broke down (direction
// parallel to the defining axis). Callers that need defined derivatives must
// check; the constructors themselves let NaNs propagate rather than trap.
func (f Frame) Degenerate() bool {
	n := r3.Norm(f.X)
	return math.IsNaN(n) || n < 1e-12
}

// Surface is a local coordinate system a track state can be bound to.
type Surface interface {
	ID() uint
	Transform() Transform

	// GlobalToLocal projects a global point near the surface into local
	// coordinates; line types need the track direction for the sign.
	GlobalToLocal(p, dir r3.Vec) Local
	// LocalToGlobal is the exact left inverse of GlobalToLocal for points
	// on the surface.
	LocalToGlobal(l Local, dir r3.Vec) r3.Vec

	// ReferenceFrame returns the derivative frame at the given state.
	ReferenceFrame(pos, dir r3.Vec) Frame

	// PathTo returns the signed path length along dir from pos to the
	// surface (closest approach for line types).
	PathTo(pos, dir r3.Vec) float64

	// FreeToPathDerivative returns the 8-component row d(path)/d(free).
	FreeToPathDerivative(pos, dir r3.Vec) *mat.VecDense

	// correctBoundAngleToFreePos patches the position/angle block of a
	// bound-to-free Jacobian whose direction columns are already filled.
	// Planar types have nothing to correct.
	correctBoundAngleToFreePos(j *mat.Dense, pos, dir r3.Vec)
}
