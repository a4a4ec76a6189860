package propagator

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trackprop/internal/geometry"
	"github.com/san-kum/trackprop/internal/track"
)

// ParameterTransporter turns the free state into bound parameters whenever a
// surface is reached, transporting the bound covariance through the full
// Jacobian chain: free-to-bound, path correction, accumulated transport,
// bound-to-free of the departure surface.
type ParameterTransporter struct{}

func (ParameterTransporter) Run(ps *State) error {
	surf := ps.Nav.CurrentSurface()
	if surf == nil {
		return nil
	}
	st := ps.Stepping

	f2b := geometry.FreeToBoundJacobian(surf, st.Track)

	// The free state is constrained to the surface, so variations slide
	// along the track: I + derivative (x) d(path)/d(free).
	corr := identity(track.FreeSize)
	var outer mat.Dense
	outer.Outer(1, st.Derivative, surf.FreeToPathDerivative(st.Track.Pos, st.Track.Dir))
	corr.Add(corr, &outer)

	// Chain the factors through fresh receivers; the final product changes
	// shape from 6x8 to 6x6, which a reused receiver cannot do.
	var m1, m2, full mat.Dense
	m1.Mul(f2b, corr)
	m2.Mul(&m1, st.JacTransport)
	full.Mul(&m2, st.JacToGlobal)

	cov := mat.NewDense(track.BoundSize, track.BoundSize, nil)
	var tmp mat.Dense
	tmp.Mul(&full, st.BoundCov)
	cov.Mul(&tmp, full.T())

	st.Bound = track.BoundParams{
		SurfaceID:  surf.ID(),
		Vector:     geometry.FreeToBoundVector(surf, st.Track),
		Covariance: cov,
	}
	st.BoundCov.Copy(cov)
	return nil
}

// ParameterResetter restarts the Jacobian bookkeeping at every reached
// surface, so the next leg departs from the freshly bound state. It must run
// after ParameterTransporter.
type ParameterResetter struct{}

func (ParameterResetter) Run(ps *State) error {
	surf := ps.Nav.CurrentSurface()
	if surf == nil {
		return nil
	}
	ps.Stepping.Reset(ps.Stepping.Bound, surf)
	return nil
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
