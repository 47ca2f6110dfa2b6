package integrator

import (
	"fmt"

	"github.com/san-kum/daekit/internal/rootfinder"
)

// Options configure an integrator instance. The grid, when given, overrides
// T0/TF; it must be strictly increasing. Options are read once at setup and
// never mutated afterwards.
type Options struct {
	// Expand rebuilds the symbolic problem through the folding
	// constructors before use.
	Expand bool

	// PrintStats prints evaluation statistics after each Eval.
	PrintStats bool

	// T0 and TF bound the horizon when Grid is empty.
	T0, TF float64

	// Grid lists explicit output times.
	Grid []float64

	// OutputT0 includes the initial time as an output point.
	OutputT0 bool

	// FiniteElements is the number of fixed steps over the horizon.
	FiniteElements int

	// Rootfinder names the solver closing implicit per-step equations.
	Rootfinder string

	// RootfinderOptions are forwarded to the rootfinder verbatim.
	RootfinderOptions rootfinder.Options

	// Augmented, when set, overrides the tunables of any derivative
	// integrator constructed from this one. The horizon fields are always
	// inherited from the parent.
	Augmented *Options
}

// DefaultOptions mirrors the defaults of the original scheme family.
func DefaultOptions() Options {
	return Options{
		T0:             0,
		TF:             1,
		FiniteElements: 20,
		Rootfinder:     "newton",
	}
}

func (o *Options) validate() error {
	if o.FiniteElements <= 0 {
		return fmt.Errorf("%w: finite elements must be positive, got %d", ErrConfig, o.FiniteElements)
	}
	if len(o.Grid) == 1 {
		return fmt.Errorf("%w: grid needs at least two points", ErrConfig)
	}
	for i := 1; i < len(o.Grid); i++ {
		if o.Grid[i] <= o.Grid[i-1] {
			return fmt.Errorf("%w: grid not strictly increasing at index %d", ErrConfig, i)
		}
	}
	if len(o.Grid) == 0 && o.TF <= o.T0 {
		return fmt.Errorf("%w: tf %g not after t0 %g", ErrConfig, o.TF, o.T0)
	}
	return nil
}
