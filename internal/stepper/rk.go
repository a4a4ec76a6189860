package stepper

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/bfield"
	"github.com/san-kum/trackprop/internal/track"
)

// Config holds the step-size control thresholds. They are policy knobs, not
// fixed numerics.
type Config struct {
	// Tolerance is the largest acceptable local truncation error.
	Tolerance float64
	// MinStep aborts the propagation when the controller shrinks the step
	// below this magnitude.
	MinStep float64
	// MaxTrials bounds the shrink-and-retry attempts per step.
	MaxTrials int
}

func DefaultConfig() Config {
	return Config{
		Tolerance: 1e-4,
		MinStep:   1e-4,
		MaxTrials: 100,
	}
}

// Policy is the navigation hook invoked after every accepted step. It may
// shrink the next proposed step or abort by returning an error.
type Policy interface {
	PostStep(s *State) error
}

// DefaultPolicy leaves the stepper's own proposal untouched.
type DefaultPolicy struct{}

func (DefaultPolicy) PostStep(*State) error { return nil }

// RK is the adaptive 4th-order Runge-Kutta stepper with Jacobian transport.
type RK struct {
	Field  bfield.Provider
	Cfg    Config
	Policy Policy
}

func NewRK(field bfield.Provider, cfg Config) *RK {
	return &RK{Field: field, Cfg: cfg, Policy: DefaultPolicy{}}
}

// stepData keeps the RK terms of one trial so the Jacobian advance can
// reuse the exact same field samples and intermediate slopes.
type stepData struct {
	t0         r3.Vec
	qop        float64
	b1, b2, b3 r3.Vec
	k1, k2, k3 r3.Vec
	k4         r3.Vec
}

// Step advances the state by one accepted RK4 step, shrinking the trial
// step until the local error estimate meets the tolerance.
func (r *RK) Step(s *State) error {
	h := s.StepSize
	if h == 0 {
		return &Error{PathLength: s.PathLength, Reason: "zero step proposal"}
	}
	if lim := s.Constraints.Size(directionOf(h)); math.Abs(h) > math.Abs(lim) {
		h = lim
	}

	var sd stepData
	trials := 0
	for {
		est := r.tryStep(s, &sd, h)
		if est <= r.Cfg.Tolerance {
			break
		}
		trials++
		if trials >= r.Cfg.MaxTrials {
			return &Error{PathLength: s.PathLength, StepSize: h, Trials: trials,
				Reason: "error estimate never reached tolerance"}
		}
		h *= clamp(math.Sqrt(math.Sqrt(r.Cfg.Tolerance/(2*est))), 0.25, 4.0)
		if math.Abs(h) < r.Cfg.MinStep {
			return &Error{PathLength: s.PathLength, StepSize: h, Trials: trials,
				Reason: "step size underflow"}
		}
	}

	// Path derivative at the step start: position rows carry the
	// direction, direction rows the last slope.
	s.Derivative.SetVec(track.FreePos0, sd.t0.X)
	s.Derivative.SetVec(track.FreePos1, sd.t0.Y)
	s.Derivative.SetVec(track.FreePos2, sd.t0.Z)
	s.Derivative.SetVec(track.FreeTime, 1)
	s.Derivative.SetVec(track.FreeDir0, sd.k4.X)
	s.Derivative.SetVec(track.FreeDir1, sd.k4.Y)
	s.Derivative.SetVec(track.FreeDir2, sd.k4.Z)

	// Advance the track state.
	s.Track.Pos = r3.Add(s.Track.Pos, r3.Add(
		r3.Scale(h, sd.t0),
		r3.Scale(h*h/6, r3.Add(r3.Add(sd.k1, sd.k2), sd.k3))))
	s.Track.Dir = r3.Unit(r3.Add(sd.t0, r3.Scale(h/6,
		r3.Add(r3.Add(sd.k1, r3.Scale(2, sd.k2)),
			r3.Add(r3.Scale(2, sd.k3), sd.k4)))))
	s.Track.Time += h
	s.PathLength += h
	s.StepSize = h

	r.advanceJacobian(s, &sd, h)

	s.Dir = directionOf(h)
	if lim := s.Constraints.Size(s.Dir); math.Abs(s.StepSize) > math.Abs(lim) {
		s.StepSize = lim
	}

	if r.Policy == nil {
		return nil
	}
	return r.Policy.PostStep(s)
}

// tryStep evaluates one RK4 trial of size h and returns the local error
// estimate. The slopes and field samples stay in sd for the accept path.
func (r *RK) tryStep(s *State, sd *stepData, h float64) float64 {
	pos := s.Track.Pos
	t := s.Track.Dir
	qop := s.Track.QOverP
	half := h / 2

	sd.t0 = t
	sd.qop = qop

	sd.b1 = r.Field.At(pos)
	sd.k1 = r3.Scale(qop, r3.Cross(t, sd.b1))

	mid := r3.Add(pos, r3.Add(r3.Scale(half, t), r3.Scale(h*h/8, sd.k1)))
	sd.b2 = r.Field.At(mid)
	sd.k2 = r3.Scale(qop, r3.Cross(r3.Add(t, r3.Scale(half, sd.k1)), sd.b2))
	sd.k3 = r3.Scale(qop, r3.Cross(r3.Add(t, r3.Scale(half, sd.k2)), sd.b2))

	end := r3.Add(pos, r3.Add(r3.Scale(h, t), r3.Scale(h*h/2, sd.k3)))
	sd.b3 = r.Field.At(end)
	sd.k4 = r3.Scale(qop, r3.Cross(r3.Add(t, r3.Scale(h, sd.k3)), sd.b3))

	errVec := r3.Add(r3.Sub(r3.Sub(sd.k1, sd.k2), sd.k3), sd.k4)
	return math.Max(h*h*r3.Norm(errVec), 1e-20)
}

// advanceJacobian left-multiplies the accumulated transport Jacobian with
// this step's 8x8 transport matrix D. The dk/dT and dk/dL blocks mirror the
// RK recursion of the slopes themselves (ATL-SOFT-PUB-2009-002).
func (r *RK) advanceJacobian(s *State, sd *stepData, h float64) {
	half := h / 2
	qop := sd.qop
	t := sd.t0

	dk1dT := id3.cross(sd.b1).scale(qop)
	dk2dT := id3.add(dk1dT.scale(half)).cross(sd.b2).scale(qop)
	dk3dT := id3.add(dk2dT.scale(half)).cross(sd.b2).scale(qop)
	dk4dT := id3.add(dk3dT.scale(h)).cross(sd.b3).scale(qop)

	dFdT := id3.add(dk1dT.add(dk2dT).add(dk3dT).scale(h / 6)).scale(h)
	dGdT := id3.add(dk1dT.add(dk2dT.add(dk3dT).scale(2)).add(dk4dT).scale(h / 6))

	dk1dL := r3.Cross(t, sd.b1)
	dk2dL := r3.Add(
		r3.Cross(r3.Add(t, r3.Scale(half, sd.k1)), sd.b2),
		r3.Scale(qop*half, r3.Cross(dk1dL, sd.b2)))
	dk3dL := r3.Add(
		r3.Cross(r3.Add(t, r3.Scale(half, sd.k2)), sd.b2),
		r3.Scale(qop*half, r3.Cross(dk2dL, sd.b2)))
	dk4dL := r3.Add(
		r3.Cross(r3.Add(t, r3.Scale(h, sd.k3)), sd.b3),
		r3.Scale(qop*h, r3.Cross(dk3dL, sd.b3)))

	dFdL := r3.Scale(h*h/6, r3.Add(r3.Add(dk1dL, dk2dL), dk3dL))
	dGdL := r3.Scale(h/6,
		r3.Add(r3.Add(dk1dL, r3.Scale(2, r3.Add(dk2dL, dk3dL))), dk4dL))

	d := eye(track.FreeSize)
	setBlock3(d, track.FreePos0, track.FreeDir0, dFdT)
	setBlock3(d, track.FreeDir0, track.FreeDir0, dGdT)
	setCol3(d, track.FreePos0, track.FreeQOverP, dFdL)
	setCol3(d, track.FreeDir0, track.FreeQOverP, dGdL)

	next := mat.NewDense(track.FreeSize, track.FreeSize, nil)
	next.Mul(d, s.JacTransport)
	s.JacTransport = next
}

// mat3 is a 3x3 matrix stored as columns, just enough algebra for the
// slope derivatives.
type mat3 [3]r3.Vec

var id3 = mat3{{X: 1}, {Y: 1}, {Z: 1}}

// cross replaces every column c with c x b.
func (m mat3) cross(b r3.Vec) mat3 {
	return mat3{r3.Cross(m[0], b), r3.Cross(m[1], b), r3.Cross(m[2], b)}
}

func (m mat3) scale(f float64) mat3 {
	return mat3{r3.Scale(f, m[0]), r3.Scale(f, m[1]), r3.Scale(f, m[2])}
}

func (m mat3) add(o mat3) mat3 {
	return mat3{r3.Add(m[0], o[0]), r3.Add(m[1], o[1]), r3.Add(m[2], o[2])}
}

func setBlock3(d *mat.Dense, row, col int, m mat3) {
	for j, c := range m {
		d.Set(row, col+j, c.X)
		d.Set(row+1, col+j, c.Y)
		d.Set(row+2, col+j, c.Z)
	}
}

func setCol3(d *mat.Dense, row, col int, v r3.Vec) {
	d.Set(row, col, v.X)
	d.Set(row+1, col, v.Y)
	d.Set(row+2, col, v.Z)
}

func directionOf(h float64) Direction {
	if h < 0 {
		return Backward
	}
	return Forward
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
