// Package rootfinder solves square nonlinear systems r(x) = 0. It closes the
// per-step implicit equations of implicit integration schemes.
package rootfinder

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors.
var (
	// ErrNoConvergence indicates the iteration hit its budget before the
	// residual dropped below tolerance. Fatal for the evaluation; the
	// caller does not retry.
	ErrNoConvergence = errors.New("rootfinder: no convergence")

	// ErrSingular indicates a singular Jacobian in the Newton step.
	ErrSingular = errors.New("rootfinder: singular jacobian")
)

// System is a square residual. Residual writes r(x) into r; both slices have
// length Dim.
type System interface {
	Dim() int
	Residual(x, r []float64) error
}

// Options tune the iteration.
type Options struct {
	MaxIter int
	Tol     float64
}

// DefaultOptions returns the tolerances used when none are configured.
func DefaultOptions() Options {
	return Options{MaxIter: 50, Tol: 1e-10}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIter <= 0 {
		o.MaxIter = d.MaxIter
	}
	if o.Tol <= 0 {
		o.Tol = d.Tol
	}
	return o
}

// Rootfinder solves a system in place, starting from the guess in x. It
// returns the number of iterations taken.
type Rootfinder interface {
	Solve(sys System, x []float64) (int, error)
}

func maxAbs(r []float64) float64 {
	m := 0.0
	for _, v := range r {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func checkDim(sys System, x []float64) error {
	if len(x) != sys.Dim() {
		return fmt.Errorf("rootfinder: guess has %d entries, system has %d", len(x), sys.Dim())
	}
	return nil
}
