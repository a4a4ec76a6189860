package stepper

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/track"
)

// Line is the field-free stepper: it moves the track along a straight line
// and transports the Jacobian with the exact position-direction coupling.
type Line struct {
	Policy Policy
}

func NewLine() *Line {
	return &Line{Policy: DefaultPolicy{}}
}

// Step advances the state by exactly the proposed step, clamped to the
// tightest constraint. Straight-line motion has no truncation error, so
// there is no trial loop.
func (l *Line) Step(s *State) error {
	h := s.StepSize
	if h == 0 {
		return &Error{PathLength: s.PathLength, Reason: "zero step proposal"}
	}
	if lim := s.Constraints.Size(directionOf(h)); math.Abs(h) > math.Abs(lim) {
		h = lim
	}

	t := s.Track.Dir
	s.Derivative.SetVec(track.FreePos0, t.X)
	s.Derivative.SetVec(track.FreePos1, t.Y)
	s.Derivative.SetVec(track.FreePos2, t.Z)
	s.Derivative.SetVec(track.FreeTime, 1)
	s.Derivative.SetVec(track.FreeDir0, 0)
	s.Derivative.SetVec(track.FreeDir1, 0)
	s.Derivative.SetVec(track.FreeDir2, 0)

	s.Track.Pos = r3.Add(s.Track.Pos, r3.Scale(h, t))
	s.Track.Time += h
	s.PathLength += h
	s.StepSize = h

	d := eye(track.FreeSize)
	setBlock3(d, track.FreePos0, track.FreeDir0, id3.scale(h))
	next := mat.NewDense(track.FreeSize, track.FreeSize, nil)
	next.Mul(d, s.JacTransport)
	s.JacTransport = next

	s.Dir = directionOf(h)
	if l.Policy == nil {
		return nil
	}
	return l.Policy.PostStep(s)
}
