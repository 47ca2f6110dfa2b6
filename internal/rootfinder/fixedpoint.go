package rootfinder

import "fmt"

// FixedPoint iterates x <- x - r(x). It converges for contractive residuals
// such as backward-Euler maps with a small step, and needs no Jacobian.
type FixedPoint struct {
	opts Options
}

// NewFixedPoint returns a fixed-point rootfinder with the given options.
func NewFixedPoint(opts Options) *FixedPoint {
	return &FixedPoint{opts: opts.withDefaults()}
}

func (f *FixedPoint) Solve(sys System, x []float64) (int, error) {
	if err := checkDim(sys, x); err != nil {
		return 0, err
	}
	r := make([]float64, sys.Dim())
	for iter := 0; iter < f.opts.MaxIter; iter++ {
		if err := sys.Residual(x, r); err != nil {
			return iter, err
		}
		if maxAbs(r) < f.opts.Tol {
			return iter, nil
		}
		for i := range x {
			x[i] -= r[i]
		}
	}
	if err := sys.Residual(x, r); err != nil {
		return f.opts.MaxIter, err
	}
	if maxAbs(r) < f.opts.Tol {
		return f.opts.MaxIter, nil
	}
	return f.opts.MaxIter, fmt.Errorf("%w: residual %.3e after %d fixed-point iterations",
		ErrNoConvergence, maxAbs(r), f.opts.MaxIter)
}
