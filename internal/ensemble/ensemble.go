// Package ensemble propagates many tracks through the same surface sequence
// in parallel.
package ensemble

import (
	"context"
	"sync"

	"github.com/san-kum/trackprop/internal/bfield"
	"github.com/san-kum/trackprop/internal/geometry"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/stepper"
	"github.com/san-kum/trackprop/internal/track"
)

// Result is the outcome of one track's propagation. Err is set for tracks
// that missed the telescope or ran out of path budget; that is a per-track
// outcome, not an ensemble failure.
type Result struct {
	Index      int
	Start      track.FreeParams
	Final      track.FreeParams
	Bound      track.BoundParams
	PathLength float64
	Steps      int
	Err        error
}

// Ensemble holds the shared, read-only setup of an ensemble run. Every
// track gets its own stepper state, navigator and actor chain, so runs
// never share mutable state.
type Ensemble struct {
	Field     bfield.Provider
	Cfg       stepper.Config
	Surfaces  []geometry.Surface
	PathLimit float64
}

func New(field bfield.Provider, cfg stepper.Config, surfaces []geometry.Surface) *Ensemble {
	return &Ensemble{Field: field, Cfg: cfg, Surfaces: surfaces}
}

// Run propagates every track and returns results in input order.
func (e *Ensemble) Run(ctx context.Context, tracks []track.FreeParams) ([]Result, error) {
	results := make([]Result, len(tracks))

	var wg sync.WaitGroup
	for i, tr := range tracks {
		wg.Add(1)
		go func(idx int, tr track.FreeParams) {
			defer wg.Done()
			results[idx] = e.runOne(ctx, idx, tr)
		}(i, tr)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Ensemble) runOne(ctx context.Context, idx int, tr track.FreeParams) Result {
	if err := ctx.Err(); err != nil {
		return Result{Index: idx, Start: tr, Err: err}
	}

	st := stepper.NewState(tr)
	nav := propagator.NewSequenceNavigator(e.Surfaces...)
	ps := propagator.NewState(st, nav)

	actors := []propagator.Actor{
		propagator.ParameterTransporter{},
		propagator.ParameterResetter{},
	}
	if e.PathLimit > 0 {
		actors = append(actors, propagator.PathLimitAborter{Limit: e.PathLimit})
	}

	prop := propagator.New(stepper.NewRK(e.Field, e.Cfg), actors...)
	err := prop.Propagate(ps)

	return Result{
		Index:      idx,
		Start:      tr,
		Final:      st.Track,
		Bound:      st.Bound,
		PathLength: st.PathLength,
		Steps:      ps.Steps,
		Err:        err,
	}
}
