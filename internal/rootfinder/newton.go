package rootfinder

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Newton is a damped Newton iteration with a finite-difference Jacobian and
// an LU solve for the step.
type Newton struct {
	opts Options
}

// NewNewton returns a Newton rootfinder with the given options.
func NewNewton(opts Options) *Newton {
	return &Newton{opts: opts.withDefaults()}
}

func (n *Newton) Solve(sys System, x []float64) (int, error) {
	if err := checkDim(sys, x); err != nil {
		return 0, err
	}
	dim := sys.Dim()
	r := make([]float64, dim)
	rp := make([]float64, dim)
	jac := mat.NewDense(dim, dim, nil)
	step := mat.NewVecDense(dim, nil)

	for iter := 0; iter < n.opts.MaxIter; iter++ {
		if err := sys.Residual(x, r); err != nil {
			return iter, err
		}
		if maxAbs(r) < n.opts.Tol {
			return iter, nil
		}

		// Finite-difference Jacobian, one column per unknown.
		for j := 0; j < dim; j++ {
			h := 1e-8 * (1 + math.Abs(x[j]))
			xj := x[j]
			x[j] = xj + h
			if err := sys.Residual(x, rp); err != nil {
				x[j] = xj
				return iter, err
			}
			x[j] = xj
			for i := 0; i < dim; i++ {
				jac.Set(i, j, (rp[i]-r[i])/h)
			}
		}

		var lu mat.LU
		lu.Factorize(jac)
		if err := lu.SolveVecTo(step, false, mat.NewVecDense(dim, r)); err != nil {
			return iter, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		for i := 0; i < dim; i++ {
			x[i] -= step.AtVec(i)
		}
	}

	if err := sys.Residual(x, r); err != nil {
		return n.opts.MaxIter, err
	}
	if maxAbs(r) < n.opts.Tol {
		return n.opts.MaxIter, nil
	}
	return n.opts.MaxIter, fmt.Errorf("%w: residual %.3e after %d newton iterations",
		ErrNoConvergence, maxAbs(r), n.opts.MaxIter)
}
