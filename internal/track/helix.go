package track

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Helix is the closed-form trajectory of a charged particle in a uniform
// magnetic field, parameterized by path length. It serves as the analytic
// reference for the numerical stepper and its transport Jacobian.
type Helix struct {
	start FreeParams
	bMag  float64
	bHat  r3.Vec
	// direction rotation rate per unit path length
	omega float64
}

// NewHelix builds the helix through the given free parameters in field b.
func NewHelix(t FreeParams, b r3.Vec) *Helix {
	h := &Helix{start: t, bMag: r3.Norm(b)}
	if h.bMag > 0 {
		h.bHat = r3.Unit(b)
		h.omega = -t.QOverP * h.bMag
	}
	return h
}

// rotate applies the rotation about bHat by angle phi (Rodrigues form).
func (h *Helix) rotate(v r3.Vec, phi float64) r3.Vec {
	c, s := math.Cos(phi), math.Sin(phi)
	par := r3.Scale(r3.Dot(h.bHat, v), h.bHat)
	return r3.Add(r3.Add(
		r3.Scale(c, v),
		r3.Scale(s, r3.Cross(h.bHat, v))),
		r3.Scale(1-c, par))
}

// translate applies the path integral of the rotation, i.e. the linear map
// taking the initial direction to the position displacement after s.
func (h *Helix) translate(v r3.Vec, s float64) r3.Vec {
	if h.straight() {
		return r3.Scale(s, v)
	}
	phi := h.omega * s
	par := r3.Scale(r3.Dot(h.bHat, v), h.bHat)
	perp := r3.Sub(v, par)
	return r3.Add(r3.Add(
		r3.Scale(math.Sin(phi)/h.omega, perp),
		r3.Scale((1-math.Cos(phi))/h.omega, r3.Cross(h.bHat, v))),
		r3.Scale(s, par))
}

func (h *Helix) straight() bool {
	return math.Abs(h.omega) < 1e-14
}

// At returns the track state at path length s.
func (h *Helix) At(s float64) FreeParams {
	out := h.start
	out.Pos = r3.Add(h.start.Pos, h.translate(h.start.Dir, s))
	if !h.straight() {
		out.Dir = h.rotate(h.start.Dir, h.omega*s)
	}
	out.Time = h.start.Time + s
	return out
}

// Jacobian returns the exact 8x8 free transport Jacobian of the helix at
// path length s: derivatives of the state at s with respect to the state at
// zero. The direction blocks are exact because the equation of motion is
// linear in the direction; the qop column follows from variation of
// parameters.
func (h *Helix) Jacobian(s float64) *mat.Dense {
	j := mat.NewDense(FreeSize, FreeSize, nil)
	for i := 0; i < FreeSize; i++ {
		j.Set(i, i, 1)
	}

	basis := []r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	for col, e := range basis {
		// dpos/ddir0
		dp := h.translate(e, s)
		j.Set(FreePos0, FreeDir0+col, dp.X)
		j.Set(FreePos1, FreeDir0+col, dp.Y)
		j.Set(FreePos2, FreeDir0+col, dp.Z)
		// ddir/ddir0
		dd := e
		if !h.straight() {
			dd = h.rotate(e, h.omega*s)
		}
		j.Set(FreeDir0, FreeDir0+col, dd.X)
		j.Set(FreeDir1, FreeDir0+col, dd.Y)
		j.Set(FreeDir2, FreeDir0+col, dd.Z)
	}

	if h.bMag > 0 {
		t0 := h.start.Dir
		phi := h.omega * s
		var c1, c2 float64
		if h.straight() {
			c1 = s * s / 2
			c2 = 0
		} else {
			c1 = s*math.Sin(phi)/h.omega + (math.Cos(phi)-1)/(h.omega*h.omega)
			c2 = (math.Sin(phi) - phi*math.Cos(phi)) / (h.omega * h.omega)
		}
		perp := r3.Sub(t0, r3.Scale(r3.Dot(h.bHat, t0), h.bHat))
		dpdl := r3.Scale(-h.bMag, r3.Sub(
			r3.Scale(c1, r3.Cross(h.bHat, t0)),
			r3.Scale(c2, perp)))
		j.Set(FreePos0, FreeQOverP, dpdl.X)
		j.Set(FreePos1, FreeQOverP, dpdl.Y)
		j.Set(FreePos2, FreeQOverP, dpdl.Z)

		ts := h.rotate(t0, phi)
		dtdl := r3.Scale(s, r3.Cross(ts, r3.Scale(h.bMag, h.bHat)))
		j.Set(FreeDir0, FreeQOverP, dtdl.X)
		j.Set(FreeDir1, FreeQOverP, dtdl.Y)
		j.Set(FreeDir2, FreeQOverP, dtdl.Z)
	}
	return j
}
