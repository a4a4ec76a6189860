package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trackprop/internal/track"
)

// BoundToFreeParams expands a bound vector on a surface into free track
// parameters.
func BoundToFreeParams(s Surface, b *mat.VecDense) track.FreeParams {
	dir := track.DirFromAngles(b.AtVec(track.BoundPhi), b.AtVec(track.BoundTheta))
	loc := Local{L0: b.AtVec(track.BoundLoc0), L1: b.AtVec(track.BoundLoc1)}
	return track.FreeParams{
		Pos:    s.LocalToGlobal(loc, dir),
		Time:   b.AtVec(track.BoundTime),
		Dir:    dir,
		QOverP: b.AtVec(track.BoundQOverP),
	}
}

// FreeToBoundVector projects free track parameters onto a surface.
func FreeToBoundVector(s Surface, f track.FreeParams) *mat.VecDense {
	loc := s.GlobalToLocal(f.Pos, f.Dir)
	phi, theta := track.AnglesFromDir(f.Dir)
	return mat.NewVecDense(track.BoundSize, []float64{
		loc.L0, loc.L1, phi, theta, f.QOverP, f.Time,
	})
}

// BoundToFreeJacobian assembles the 8x6 derivative of the free state with
// respect to the bound state on the departure surface.
func BoundToFreeJacobian(s Surface, b *mat.VecDense) *mat.Dense {
	phi := b.AtVec(track.BoundPhi)
	theta := b.AtVec(track.BoundTheta)
	dir := track.DirFromAngles(phi, theta)
	loc := Local{L0: b.AtVec(track.BoundLoc0), L1: b.AtVec(track.BoundLoc1)}
	pos := s.LocalToGlobal(loc, dir)

	j := mat.NewDense(track.FreeSize, track.BoundSize, nil)

	frame := s.ReferenceFrame(pos, dir)
	j.Set(track.FreePos0, track.BoundLoc0, frame.X.X)
	j.Set(track.FreePos1, track.BoundLoc0, frame.X.Y)
	j.Set(track.FreePos2, track.BoundLoc0, frame.X.Z)
	j.Set(track.FreePos0, track.BoundLoc1, frame.Y.X)
	j.Set(track.FreePos1, track.BoundLoc1, frame.Y.Y)
	j.Set(track.FreePos2, track.BoundLoc1, frame.Y.Z)

	j.Set(track.FreeTime, track.BoundTime, 1)

	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	j.Set(track.FreeDir0, track.BoundPhi, -sinTheta*sinPhi)
	j.Set(track.FreeDir1, track.BoundPhi, sinTheta*cosPhi)
	j.Set(track.FreeDir0, track.BoundTheta, cosTheta*cosPhi)
	j.Set(track.FreeDir1, track.BoundTheta, cosTheta*sinPhi)
	j.Set(track.FreeDir2, track.BoundTheta, -sinTheta)

	j.Set(track.FreeQOverP, track.BoundQOverP, 1)

	// Surface types whose local origin moves with the direction add their
	// position/angle coupling on top of the filled direction columns.
	s.correctBoundAngleToFreePos(j, pos, dir)

	return j
}

// FreeToBoundJacobian assembles the 6x8 derivative of the bound state on the
// destination surface with respect to the free state.
func FreeToBoundJacobian(s Surface, f track.FreeParams) *mat.Dense {
	frame := s.ReferenceFrame(f.Pos, f.Dir)
	phi, theta := track.AnglesFromDir(f.Dir)

	j := mat.NewDense(track.BoundSize, track.FreeSize, nil)

	j.Set(track.BoundLoc0, track.FreePos0, frame.X.X)
	j.Set(track.BoundLoc0, track.FreePos1, frame.X.Y)
	j.Set(track.BoundLoc0, track.FreePos2, frame.X.Z)
	j.Set(track.BoundLoc1, track.FreePos0, frame.Y.X)
	j.Set(track.BoundLoc1, track.FreePos1, frame.Y.Y)
	j.Set(track.BoundLoc1, track.FreePos2, frame.Y.Z)

	j.Set(track.BoundTime, track.FreeTime, 1)

	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)
	invSinTheta := 1 / sinTheta
	j.Set(track.BoundPhi, track.FreeDir0, -sinPhi*invSinTheta)
	j.Set(track.BoundPhi, track.FreeDir1, cosPhi*invSinTheta)
	j.Set(track.BoundTheta, track.FreeDir0, cosPhi*cosTheta)
	j.Set(track.BoundTheta, track.FreeDir1, sinPhi*cosTheta)
	j.Set(track.BoundTheta, track.FreeDir2, -sinTheta)

	j.Set(track.BoundQOverP, track.FreeQOverP, 1)

	return j
}
