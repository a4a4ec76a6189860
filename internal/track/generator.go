package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Generator produces free track parameters on a uniform grid of direction
// angles, all sharing one origin and momentum. Used for detector sweeps.
type Generator struct {
	ThetaSteps int
	PhiSteps   int
	Origin     r3.Vec
	P          float64
	Charge     float64
}

// Tracks returns the full grid. Theta stays away from the poles so every
// generated direction has well defined angles.
func (g Generator) Tracks() []FreeParams {
	const thetaMargin = 0.01

	out := make([]FreeParams, 0, g.ThetaSteps*g.PhiSteps)
	for i := 0; i < g.ThetaSteps; i++ {
		theta := thetaMargin + (math.Pi-2*thetaMargin)*float64(i)/float64(g.ThetaSteps)
		for j := 0; j < g.PhiSteps; j++ {
			phi := -math.Pi + 2*math.Pi*float64(j)/float64(g.PhiSteps)
			mom := r3.Scale(g.P, DirFromAngles(phi, theta))
			out = append(out, NewFreeParams(g.Origin, 0, mom, g.Charge))
		}
	}
	return out
}
