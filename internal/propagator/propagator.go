// Package propagator drives a stepper through an ordered set of surfaces,
// running a chain of actors after every step.
package propagator

import (
	"errors"
	"fmt"

	"github.com/san-kum/trackprop/internal/stepper"
)

// Status is the phase of a propagation.
type Status int

const (
	StatusNotStarted Status = iota
	StatusStepping
	StatusNavigating
	StatusActing
	StatusAborted
	StatusSucceeded
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusStepping:
		return "stepping"
	case StatusNavigating:
		return "navigating"
	case StatusActing:
		return "acting"
	case StatusAborted:
		return "aborted"
	case StatusSucceeded:
		return "succeeded"
	}
	return "unknown"
}

// ErrStalled reports that the navigator lost its target before the sequence
// was exhausted, typically a track that misses a surface.
var ErrStalled = errors.New("navigation stalled before the last surface")

// Stepper advances a stepping state by one accepted step.
type Stepper interface {
	Step(*stepper.State) error
}

// State bundles everything one propagation owns.
type State struct {
	Stepping *stepper.State
	Nav      Navigator
	Status   Status
	// Err records the abort cause when Status is StatusAborted.
	Err error
	// Steps counts accepted steps.
	Steps int
}

// NewState pairs a stepping state with a navigator.
func NewState(st *stepper.State, nav Navigator) *State {
	return &State{Stepping: st, Nav: nav, Status: StatusNotStarted}
}

func (s *State) abort(err error) error {
	s.Status = StatusAborted
	s.Err = err
	return err
}

// Propagator runs the step/navigate/act loop.
type Propagator struct {
	Stepper Stepper
	Actors  []Actor
}

func New(st Stepper, actors ...Actor) *Propagator {
	return &Propagator{Stepper: st, Actors: actors}
}

// Propagate drives the state until the navigator is exhausted or an actor
// or the stepper aborts the propagation.
func (p *Propagator) Propagate(ps *State) error {
	heartbeat := ps.Nav.Init(ps.Stepping)

	// Actors see the initial state once before any step is taken.
	ps.Status = StatusActing
	if err := p.runActors(ps); err != nil {
		return ps.abort(err)
	}

	for heartbeat && ps.Status != StatusAborted {
		ps.Status = StatusStepping
		if err := p.Stepper.Step(ps.Stepping); err != nil {
			return ps.abort(fmt.Errorf("stepping: %w", err))
		}
		ps.Steps++

		ps.Status = StatusNavigating
		heartbeat = ps.Nav.Update(ps.Stepping)

		ps.Status = StatusActing
		if err := p.runActors(ps); err != nil {
			return ps.abort(err)
		}
	}

	if !ps.Nav.Exhausted() {
		return ps.abort(ErrStalled)
	}
	ps.Status = StatusSucceeded
	return nil
}

func (p *Propagator) runActors(ps *State) error {
	for _, a := range p.Actors {
		if err := a.Run(ps); err != nil {
			return err
		}
	}
	return nil
}
