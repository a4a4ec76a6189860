package propagator

// Actor observes or mutates the propagation state after every step (and
// once before the first). Returning an error aborts the propagation.
type Actor interface {
	Run(ps *State) error
}

// ActorFunc adapts a function to the Actor interface.
type ActorFunc func(ps *State) error

func (f ActorFunc) Run(ps *State) error { return f(ps) }
