package propagator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/bfield"
	"github.com/san-kum/trackprop/internal/geometry"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
)

// planeAtX builds a plane perpendicular to the global x axis. Its local
// axes are global y and z.
func planeAtX(id uint, x float64) *geometry.Plane {
	trf := geometry.NewTransform(r3.Vec{X: x}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	return geometry.NewPlane(id, trf)
}

func TestTelescopePropagation(t *testing.T) {
	nav := NewSequenceNavigator(planeAtX(1, 1), planeAtX(2, 2), planeAtX(3, 3))
	st := stepper.NewState(track.NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 1}, 1))
	ps := NewState(st, nav)

	logger := &StepLogger{}
	prop := New(stepper.NewLine(), logger)
	require.NoError(t, prop.Propagate(ps))

	assert.Equal(t, StatusSucceeded, ps.Status)
	assert.True(t, nav.Exhausted())
	assert.InDelta(t, 3, st.Track.Pos.X, 1e-9)
	assert.InDelta(t, 3, st.PathLength, 1e-9)

	var hits []int
	for _, r := range logger.Records {
		if r.SurfaceID >= 0 {
			hits = append(hits, r.SurfaceID)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, hits)
	// One record before the first step, one per accepted step.
	assert.Len(t, logger.Records, ps.Steps+1)
}

func TestTelescopeCovarianceTransport(t *testing.T) {
	const (
		sigLoc = 0.01   // variance
		sigAng = 0.0001 // variance
	)
	cov := mat.NewDense(track.BoundSize, track.BoundSize, nil)
	cov.Set(track.BoundLoc0, track.BoundLoc0, sigLoc)
	cov.Set(track.BoundLoc1, track.BoundLoc1, sigLoc)
	cov.Set(track.BoundPhi, track.BoundPhi, sigAng)
	cov.Set(track.BoundTheta, track.BoundTheta, sigAng)
	cov.Set(track.BoundQOverP, track.BoundQOverP, 0.001)
	cov.Set(track.BoundTime, track.BoundTime, 0.1)

	departure := planeAtX(0, 0)
	b := track.NewBoundParams(0, 0, 0, 0, math.Pi/2, 1, 0, cov)
	st := stepper.NewBoundState(b, departure)

	nav := NewSequenceNavigator(planeAtX(1, 1), planeAtX(2, 2), planeAtX(3, 3))
	ps := NewState(st, nav)
	prop := New(stepper.NewLine(), ParameterTransporter{}, ParameterResetter{})
	require.NoError(t, prop.Propagate(ps))

	require.Equal(t, uint(3), st.Bound.SurfaceID)
	assert.InDelta(t, 0, st.Bound.Loc0(), 1e-9)
	assert.InDelta(t, 0, st.Bound.Loc1(), 1e-9)
	assert.InDelta(t, 0, st.Bound.Phi(), 1e-9)
	assert.InDelta(t, math.Pi/2, st.Bound.Theta(), 1e-9)
	assert.InDelta(t, 3, st.Bound.Time(), 1e-9)

	// Straight-line transport between parallel planes over total path s
	// turns angular spread into local spread: var(loc) += s^2 var(angle),
	// cov(loc, angle) = s var(angle). Everything else is untouched.
	const s = 3.0
	out := st.Bound.Covariance
	assert.InDelta(t, sigLoc+s*s*sigAng, out.At(track.BoundLoc0, track.BoundLoc0), 1e-10)
	assert.InDelta(t, sigLoc+s*s*sigAng, out.At(track.BoundLoc1, track.BoundLoc1), 1e-10)
	assert.InDelta(t, s*sigAng, out.At(track.BoundLoc0, track.BoundPhi), 1e-10)
	assert.InDelta(t, -s*sigAng, out.At(track.BoundLoc1, track.BoundTheta), 1e-10)
	assert.InDelta(t, sigAng, out.At(track.BoundPhi, track.BoundPhi), 1e-12)
	assert.InDelta(t, sigAng, out.At(track.BoundTheta, track.BoundTheta), 1e-12)
	assert.InDelta(t, 0.001, out.At(track.BoundQOverP, track.BoundQOverP), 1e-12)
	assert.InDelta(t, 0.1, out.At(track.BoundTime, track.BoundTime), 1e-12)
}

func TestCurvedTrackReachesPlanes(t *testing.T) {
	b := r3.Vec{Z: 0.1}
	rk := stepper.NewRK(bfield.Constant{B: b}, stepper.DefaultConfig())
	tr := track.NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 1}, 1)
	st := stepper.NewState(tr)

	planes := []geometry.Surface{planeAtX(1, 1), planeAtX(2, 2)}
	ps := NewState(st, NewSequenceNavigator(planes...))
	require.NoError(t, New(rk).Propagate(ps))

	assert.Equal(t, StatusSucceeded, ps.Status)
	last := planes[1]
	assert.InDelta(t, 0, last.PathTo(st.Track.Pos, st.Track.Dir), OnSurfaceTolerance)

	helix := track.NewHelix(tr, b)
	want := helix.At(st.PathLength)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(st.Track.Pos, want.Pos)), 1e-4)
}

func TestPathLimitAborts(t *testing.T) {
	st := stepper.NewState(track.NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 1}, 1))
	ps := NewState(st, NewSequenceNavigator(planeAtX(1, 1), planeAtX(2, 3)))

	prop := New(stepper.NewLine(), PathLimitAborter{Limit: 1.5})
	err := prop.Propagate(ps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathLimit))
	assert.Equal(t, StatusAborted, ps.Status)
	// The budget doubles as a step constraint, so the track never
	// oversteps the limit.
	assert.LessOrEqual(t, st.PathLength, 1.5+OnSurfaceTolerance)
	assert.InDelta(t, 1.5, st.PathLength, 1e-9)
}

func TestNavigationStalls(t *testing.T) {
	// The plane's normal is orthogonal to the direction of motion, the
	// track never intersects it.
	trf := geometry.NewTransform(r3.Vec{Y: 5}, r3.Vec{Y: 1}, r3.Vec{X: 1})
	nav := NewSequenceNavigator(geometry.NewPlane(1, trf))
	st := stepper.NewState(track.NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 1}, 1))
	ps := NewState(st, nav)

	err := New(stepper.NewLine()).Propagate(ps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStalled))
	assert.Equal(t, StatusAborted, ps.Status)
}

func TestActorErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	nav := NewSequenceNavigator(planeAtX(1, 1))
	st := stepper.NewState(track.NewFreeParams(r3.Vec{}, 0, r3.Vec{X: 1}, 1))
	ps := NewState(st, nav)

	calls := 0
	prop := New(stepper.NewLine(), ActorFunc(func(*State) error {
		calls++
		if calls > 1 {
			return boom
		}
		return nil
	}))
	err := prop.Propagate(ps)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusAborted, ps.Status)
	assert.Same(t, boom, ps.Err)
}
