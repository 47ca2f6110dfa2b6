// Package integrator drives DAE problems over a time horizon with forward
// and adjoint sensitivity support.
//
// An [Integrator] is an immutable configuration built once from a symbolic
// [oracle.Problem] and a stepping [Scheme]. Each evaluation runs against its
// own [Memory]: reset, one advance per output grid point and, when backward
// states exist, one backward sweep consuming the forward tape. Boolean
// dependency propagation ([Integrator.SpForward], [Integrator.SpReverse])
// and augmented-system construction ([Integrator.ForwardDerivative],
// [Integrator.ReverseDerivative]) share the same configuration.
package integrator

import (
	"fmt"
	"io"
	"os"

	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/sparsity"
)

// Scheme is a concrete stepping strategy. Reset/Advance form the forward
// leg, ResetB/Retreat the time-reversed mirror. Schemes hold configuration
// only; all per-evaluation state lives in the Memory.
type Scheme interface {
	Init(ig *Integrator) error
	Fresh() Scheme
	InitMemory(m *Memory)

	Reset(m *Memory, t float64, x, z, p []float64) error
	Advance(m *Memory, t float64, x, z, q []float64) error
	ResetB(m *Memory, t float64, rx, rz, rp []float64) error
	Retreat(m *Memory, t float64, rx, rz, rq []float64) error
}

// Input carries the six evaluation inputs. Nil slices are zero-filled.
type Input struct {
	X0  []float64 // initial differential state
	P   []float64 // parameters
	Z0  []float64 // initial guess for the algebraic state
	RX0 []float64 // terminal backward state
	RP  []float64 // backward parameters
	RZ0 []float64 // initial guess for the backward algebraic state
}

// Output receives the six evaluation outputs. XF, ZF and QF hold one column
// per output time, column-major; the backward outputs hold a single column.
// Nil slices are skipped.
type Output struct {
	XF, QF, ZF    []float64
	RXF, RQF, RZF []float64
}

// Integrator is the shared-read configuration of one integration problem.
type Integrator struct {
	dae    *oracle.DAE
	dims   oracle.Dims
	opts   Options
	grid   []float64
	ntout  int
	scheme Scheme

	jacDAE  *sparsity.Pattern
	btfDAE  *sparsity.BTF
	jacRDAE *sparsity.Pattern
	btfRDAE *sparsity.BTF
}

// warnw receives non-fatal advisories. Swapped out in tests.
var warnw io.Writer = os.Stderr

// New builds an integrator for the problem with the given stepping scheme.
// All configuration errors surface here, before any stepping.
func New(prob *oracle.Problem, scheme Scheme, opts Options) (*Integrator, error) {
	return newIntegrator(prob, scheme, opts, true)
}

// newIntegrator is New plus a switch for the sparse-state advisory, so
// internally constructed derivative integrators do not repeat it.
func newIntegrator(prob *oracle.Problem, scheme Scheme, opts Options, warn bool) (*Integrator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Expand {
		prob = prob.Simplify()
	}
	dae, err := oracle.New(prob)
	if err != nil {
		return nil, err
	}

	grid := opts.Grid
	if len(grid) == 0 {
		grid = []float64{opts.T0, opts.TF}
	} else {
		grid = append([]float64(nil), grid...)
	}
	ntout := len(grid)
	if !opts.OutputT0 {
		ntout--
	}

	ig := &Integrator{
		dae:    dae,
		dims:   dae.Dims(),
		opts:   opts,
		grid:   grid,
		ntout:  ntout,
		scheme: scheme,
	}

	ig.jacDAE, err = spJacDAE(dae)
	if err != nil {
		return nil, err
	}
	ig.btfDAE, err = ig.jacDAE.Factor()
	if err != nil {
		return nil, err
	}
	if ig.dims.NRX > 0 {
		ig.jacRDAE, err = spJacRDAE(dae)
		if err != nil {
			return nil, err
		}
		ig.btfRDAE, err = ig.jacRDAE.Factor()
		if err != nil {
			return nil, err
		}
	}

	// Non-fatal advisory: a differential state nothing depends on makes
	// the combined Jacobian structurally rank-deficient.
	if warn {
		for _, j := range unusedStates(dae) {
			fmt.Fprintf(warnw, "integrator: warning: differential state %d is structurally unused; sparse states are experimental\n", j)
		}
	}

	if err := scheme.Init(ig); err != nil {
		return nil, err
	}
	return ig, nil
}

// Dims returns the problem dimensions.
func (ig *Integrator) Dims() oracle.Dims { return ig.dims }

// Grid returns the output time grid.
func (ig *Integrator) Grid() []float64 { return ig.grid }

// NumOutputs returns the number of forward output columns.
func (ig *Integrator) NumOutputs() int { return ig.ntout }

// Oracle returns the underlying DAE oracle.
func (ig *Integrator) Oracle() *oracle.DAE { return ig.dae }

// NewOutput allocates output buffers sized for this integrator.
func (ig *Integrator) NewOutput() *Output {
	d := ig.dims
	return &Output{
		XF:  make([]float64, d.NX*ig.ntout),
		QF:  make([]float64, d.NQ*ig.ntout),
		ZF:  make([]float64, d.NZ*ig.ntout),
		RXF: make([]float64, d.NRX),
		RQF: make([]float64, d.NRQ),
		RZF: make([]float64, d.NRZ),
	}
}

// Eval runs one full evaluation: reset, one advance per requested output
// time in increasing order and, if backward states exist, one backward sweep
// over the whole horizon.
func (ig *Integrator) Eval(m *Memory, in *Input, out *Output) error {
	d := ig.dims
	x0, err := fit("x0", in.X0, d.NX)
	if err != nil {
		return err
	}
	p, err := fit("p", in.P, d.NP)
	if err != nil {
		return err
	}
	z0, err := fit("z0", in.Z0, d.NZ)
	if err != nil {
		return err
	}
	rx0, err := fit("rx0", in.RX0, d.NRX)
	if err != nil {
		return err
	}
	rp, err := fit("rp", in.RP, d.NRP)
	if err != nil {
		return err
	}
	rz0, err := fit("rz0", in.RZ0, d.NRZ)
	if err != nil {
		return err
	}

	m.Stats.reset()
	if err := ig.scheme.Reset(m, ig.grid[0], x0, z0, p); err != nil {
		return err
	}

	pos := 0
	for k, tk := range ig.grid {
		if k == 0 && !ig.opts.OutputT0 {
			continue
		}
		err := ig.scheme.Advance(m, tk,
			column(out.XF, pos, d.NX),
			column(out.ZF, pos, d.NZ),
			column(out.QF, pos, d.NQ))
		if err != nil {
			return err
		}
		pos++
	}

	if d.HasBackward() {
		if err := ig.scheme.ResetB(m, ig.grid[len(ig.grid)-1], rx0, rz0, rp); err != nil {
			return err
		}
		if err := ig.scheme.Retreat(m, ig.grid[0], out.RXF, out.RZF, out.RQF); err != nil {
			return err
		}
	}

	if ig.opts.PrintStats {
		m.Stats.Print(os.Stdout)
	}
	return nil
}

// unusedStates lists the differential states no equation depends on.
func unusedStates(dae *oracle.DAE) []int {
	var out []int
	for j := 0; j < dae.Dims().NX; j++ {
		if len(dae.JacSparsity(oracle.X, oracle.ODE).Column(j)) == 0 &&
			len(dae.JacSparsity(oracle.X, oracle.ALG).Column(j)) == 0 {
			out = append(out, j)
		}
	}
	return out
}

// fit accepts a buffer of exactly n entries, or nil for an all-zero vector.
func fit(name string, buf []float64, n int) ([]float64, error) {
	if buf == nil {
		return make([]float64, n), nil
	}
	if len(buf) != n {
		return nil, fmt.Errorf("%w: input %s has %d entries, want %d", ErrConfig, name, len(buf), n)
	}
	return buf, nil
}

func column(buf []float64, pos, n int) []float64 {
	if buf == nil || n == 0 {
		return nil
	}
	return buf[pos*n : (pos+1)*n]
}
