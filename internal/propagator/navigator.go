package propagator

import (
	"math"

	"github.com/san-kum/trackprop/internal/geometry"
	"github.com/san-kum/trackprop/internal/stepper"
)

// Navigator steers the stepper toward surfaces. Init and Update return the
// heartbeat: false ends the propagation loop.
type Navigator interface {
	Init(s *stepper.State) bool
	Update(s *stepper.State) bool
	// CurrentSurface is non-nil exactly while the track sits on a surface.
	CurrentSurface() geometry.Surface
	Exhausted() bool
}

// OnSurfaceTolerance is the path distance below which a surface counts as
// reached.
const OnSurfaceTolerance = 1e-6

// SequenceNavigator walks a fixed, ordered list of surfaces, the telescope
// layout. It proposes the full remaining distance to the next target as the
// step size and lets the stepper's own limits shorten it.
type SequenceNavigator struct {
	Surfaces []geometry.Surface

	next    int
	current geometry.Surface
}

func NewSequenceNavigator(surfaces ...geometry.Surface) *SequenceNavigator {
	return &SequenceNavigator{Surfaces: surfaces}
}

func (n *SequenceNavigator) Init(s *stepper.State) bool {
	n.next = 0
	n.current = nil
	if len(n.Surfaces) == 0 {
		return false
	}
	return n.target(s)
}

func (n *SequenceNavigator) Update(s *stepper.State) bool {
	n.current = nil
	tgt := n.Surfaces[n.next]
	dist := tgt.PathTo(s.Track.Pos, s.Track.Dir)
	if math.IsNaN(dist) {
		return false
	}
	if math.Abs(dist) > OnSurfaceTolerance {
		s.StepSize = dist
		return true
	}

	n.current = tgt
	n.next++
	if n.Exhausted() {
		return false
	}
	return n.target(s)
}

func (n *SequenceNavigator) CurrentSurface() geometry.Surface { return n.current }

func (n *SequenceNavigator) Exhausted() bool { return n.next >= len(n.Surfaces) }

// target points the stepper at the next surface.
func (n *SequenceNavigator) target(s *stepper.State) bool {
	dist := n.Surfaces[n.next].PathTo(s.Track.Pos, s.Track.Dir)
	if math.IsNaN(dist) {
		return false
	}
	s.StepSize = dist
	return true
}
