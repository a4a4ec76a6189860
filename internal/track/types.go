package track

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Component counts of the two track parameterizations.
const (
	FreeSize  = 8
	BoundSize = 6
)

// Free vector component indices: global position, time, unit direction,
// charge over momentum.
const (
	FreePos0 = iota
	FreePos1
	FreePos2
	FreeTime
	FreeDir0
	FreeDir1
	FreeDir2
	FreeQOverP
)

// Bound vector component indices: surface-local position, direction angles,
// charge over momentum, time.
const (
	BoundLoc0 = iota
	BoundLoc1
	BoundPhi
	BoundTheta
	BoundQOverP
	BoundTime
)

// FreeParams is a track state in global coordinates. Dir is kept unit-norm
// by every stepper update.
type FreeParams struct {
	Pos    r3.Vec
	Time   float64
	Dir    r3.Vec
	QOverP float64
}

// NewFreeParams builds free parameters from a momentum vector and charge.
func NewFreeParams(pos r3.Vec, time float64, mom r3.Vec, q float64) FreeParams {
	p := r3.Norm(mom)
	return FreeParams{
		Pos:    pos,
		Time:   time,
		Dir:    r3.Unit(mom),
		QOverP: q / p,
	}
}

// P returns the momentum magnitude.
func (f FreeParams) P() float64 {
	return math.Abs(1 / f.QOverP)
}

// Vector packs the parameters into an 8-component column vector.
func (f FreeParams) Vector() *mat.VecDense {
	v := mat.NewVecDense(FreeSize, nil)
	v.SetVec(FreePos0, f.Pos.X)
	v.SetVec(FreePos1, f.Pos.Y)
	v.SetVec(FreePos2, f.Pos.Z)
	v.SetVec(FreeTime, f.Time)
	v.SetVec(FreeDir0, f.Dir.X)
	v.SetVec(FreeDir1, f.Dir.Y)
	v.SetVec(FreeDir2, f.Dir.Z)
	v.SetVec(FreeQOverP, f.QOverP)
	return v
}

// FreeFromVector unpacks an 8-component column vector.
func FreeFromVector(v *mat.VecDense) FreeParams {
	return FreeParams{
		Pos:    r3.Vec{X: v.AtVec(FreePos0), Y: v.AtVec(FreePos1), Z: v.AtVec(FreePos2)},
		Time:   v.AtVec(FreeTime),
		Dir:    r3.Vec{X: v.AtVec(FreeDir0), Y: v.AtVec(FreeDir1), Z: v.AtVec(FreeDir2)},
		QOverP: v.AtVec(FreeQOverP),
	}
}

// IsValid reports whether all components are finite.
func (f FreeParams) IsValid() bool {
	for _, v := range []float64{
		f.Pos.X, f.Pos.Y, f.Pos.Z, f.Time,
		f.Dir.X, f.Dir.Y, f.Dir.Z, f.QOverP,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// BoundParams is a track state tied to one reference surface: a 6-component
// bound vector plus its covariance. The surface link is opaque at this level.
type BoundParams struct {
	SurfaceID  uint
	Vector     *mat.VecDense
	Covariance *mat.Dense
}

// NewBoundParams builds bound parameters from explicit components and a
// covariance matrix. A nil covariance yields the zero matrix.
func NewBoundParams(surfaceID uint, loc0, loc1, phi, theta, qop, time float64, cov *mat.Dense) BoundParams {
	v := mat.NewVecDense(BoundSize, []float64{loc0, loc1, phi, theta, qop, time})
	if cov == nil {
		cov = mat.NewDense(BoundSize, BoundSize, nil)
	}
	return BoundParams{SurfaceID: surfaceID, Vector: v, Covariance: cov}
}

func (b BoundParams) Loc0() float64  { return b.Vector.AtVec(BoundLoc0) }
func (b BoundParams) Loc1() float64  { return b.Vector.AtVec(BoundLoc1) }
func (b BoundParams) Phi() float64   { return b.Vector.AtVec(BoundPhi) }
func (b BoundParams) Theta() float64 { return b.Vector.AtVec(BoundTheta) }
func (b BoundParams) QOverP() float64 {
	return b.Vector.AtVec(BoundQOverP)
}
func (b BoundParams) Time() float64 { return b.Vector.AtVec(BoundTime) }

// Dir returns the global direction encoded by the bound angles.
func (b BoundParams) Dir() r3.Vec {
	return DirFromAngles(b.Phi(), b.Theta())
}

// DirFromAngles converts direction angles to a unit vector.
func DirFromAngles(phi, theta float64) r3.Vec {
	sinTheta := math.Sin(theta)
	return r3.Vec{
		X: math.Cos(phi) * sinTheta,
		Y: math.Sin(phi) * sinTheta,
		Z: math.Cos(theta),
	}
}

// AnglesFromDir converts a unit direction to (phi, theta).
func AnglesFromDir(d r3.Vec) (phi, theta float64) {
	return math.Atan2(d.Y, d.X), math.Acos(d.Z)
}
