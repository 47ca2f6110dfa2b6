package integrator

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/symbolic"
)

// pureDecay is dx/dt = -p*x with dq/dt = x.
func pureDecay() *oracle.Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 1)
	p := symbolic.Sym("p", 1)
	return &oracle.Problem{
		T: t, X: x, P: p,
		ODE:  symbolic.Vector{symbolic.Neg(symbolic.Mul(p[0], x[0]))},
		QUAD: symbolic.Vector{x[0]},
	}
}

// decayAdjoint extends pureDecay with the exact adjoint pair: the backward
// quadrature accumulates d x(tf) / dp.
func decayAdjoint() *oracle.Problem {
	prob := pureDecay()
	rx := symbolic.Sym("rx", 1)
	prob.RX = rx
	prob.RODE = symbolic.Vector{symbolic.Neg(symbolic.Mul(prob.P[0], rx[0]))}
	prob.RQUAD = symbolic.Vector{symbolic.Neg(symbolic.Mul(prob.X[0], rx[0]))}
	return prob
}

// algDecay hides the decay rate behind an algebraic variable:
// dx/dt = z with 0 = z + x.
func algDecay() *oracle.Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 1)
	z := symbolic.Sym("z", 1)
	return &oracle.Problem{
		T: t, X: x, Z: z,
		ODE: symbolic.Vector{z[0]},
		ALG: symbolic.Vector{symbolic.Add(z[0], x[0])},
	}
}

func newTestIntegrator(t *testing.T, prob *oracle.Problem, scheme Scheme, mutate func(*Options)) *Integrator {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	ig, err := New(prob, scheme, opts)
	require.NoError(t, err)
	return ig
}

func evalOnce(t *testing.T, ig *Integrator, in *Input) *Output {
	t.Helper()
	out := ig.NewOutput()
	require.NoError(t, ig.Eval(ig.NewMemory(), in, out))
	return out
}

func TestUnusedStateAdvisoryOnce(t *testing.T) {
	var buf bytes.Buffer
	old := warnw
	warnw = &buf
	defer func() { warnw = old }()

	tt := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 2)
	prob := &oracle.Problem{
		T: tt, X: x,
		ODE: symbolic.Vector{symbolic.Neg(x[0]), symbolic.Neg(x[0])},
	}
	ig, err := New(prob, NewEuler(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "structurally unused"))

	// Derivative integrators are built internally and stay quiet.
	buf.Reset()
	_, _, err = ig.ForwardDerivative(1)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestEulerDecayOneStep(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 1
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	// x1 = x0 + h*(-x0) with h = 1.
	assert.InDelta(t, 0, out.XF[0], 1e-14)
}

func TestEulerDecayTwoSteps(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	assert.InDelta(t, 0.25, out.XF[0], 1e-14)
}

func TestEulerQuadrature(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	// q = h*x0 + h*x1 = 0.5*1 + 0.5*0.5
	assert.InDelta(t, 0.75, out.QF[0], 1e-14)
}

func TestRK4Accuracy(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewRK4(), func(o *Options) {
		o.FiniteElements = 20
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	assert.InDelta(t, math.Exp(-1), out.XF[0], 1e-6)
}

func TestOutputGridWithT0(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
		o.Grid = []float64{0, 0.5, 1}
		o.OutputT0 = true
	})
	require.Equal(t, 3, ig.NumOutputs())
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	assert.InDelta(t, 1, out.XF[0], 1e-14)
	assert.InDelta(t, 0.5, out.XF[1], 1e-14)
	assert.InDelta(t, 0.25, out.XF[2], 1e-14)
}

func TestOutputGridWithoutT0(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
		o.Grid = []float64{0, 0.5, 1}
	})
	require.Equal(t, 2, ig.NumOutputs())
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	assert.InDelta(t, 0.5, out.XF[0], 1e-14)
	assert.InDelta(t, 0.25, out.XF[1], 1e-14)
}

func TestOutputSnapsToStep(t *testing.T) {
	// h = 0.25; the output time 0.24 rounds up to the step boundary 0.25.
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 4
		o.Grid = []float64{0, 0.24, 1}
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	assert.InDelta(t, 0.75, out.XF[0], 1e-14)
	assert.InDelta(t, math.Pow(0.75, 4), out.XF[1], 1e-14)
}

func TestImplicitEulerDecay(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewImplicitEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, P: []float64{1}})
	// x_{k+1} = x_k / (1 + h*p), twice.
	assert.InDelta(t, 4.0/9.0, out.XF[0], 1e-8)
}

func TestImplicitEulerDAE(t *testing.T) {
	ig := newTestIntegrator(t, algDecay(), NewImplicitEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	out := evalOnce(t, ig, &Input{X0: []float64{1}, Z0: []float64{-1}})
	assert.InDelta(t, 4.0/9.0, out.XF[0], 1e-8)
	// The algebraic constraint pins z = -x at the final point.
	assert.InDelta(t, -4.0/9.0, out.ZF[0], 1e-8)
}

func TestAdjointGradientEuler(t *testing.T) {
	ig := newTestIntegrator(t, decayAdjoint(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	out := evalOnce(t, ig, &Input{
		X0: []float64{1}, P: []float64{1}, RX0: []float64{1},
	})
	// Exact discrete adjoint of x_{k+1} = (1-h)x_k over two steps:
	// d xf / d x0 = 0.25, d xf / d p = -0.5.
	assert.InDelta(t, 0.25, out.RXF[0], 1e-14)
	assert.InDelta(t, -0.5, out.RQF[0], 1e-14)
}

func TestAdjointGradientImplicitEuler(t *testing.T) {
	ig := newTestIntegrator(t, decayAdjoint(), NewImplicitEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	out := evalOnce(t, ig, &Input{
		X0: []float64{1}, P: []float64{1}, RX0: []float64{1},
	})
	// x_{k+1} = x_k/(1+h): d xf / d x0 = (1/1.5)^2, d xf / d p = -8/27.
	assert.InDelta(t, 4.0/9.0, out.RXF[0], 1e-7)
	assert.InDelta(t, -8.0/27.0, out.RQF[0], 1e-7)
}

func TestRepeatedEvalIsDeterministic(t *testing.T) {
	ig := newTestIntegrator(t, decayAdjoint(), NewEuler(), func(o *Options) {
		o.FiniteElements = 3
	})
	in := &Input{X0: []float64{1}, P: []float64{1}, RX0: []float64{1}}
	m := ig.NewMemory()

	first := ig.NewOutput()
	require.NoError(t, ig.Eval(m, in, first))
	second := ig.NewOutput()
	require.NoError(t, ig.Eval(m, in, second))

	assert.Equal(t, first.XF, second.XF)
	assert.Equal(t, first.RXF, second.RXF)
	assert.Equal(t, first.RQF, second.RQF)
}

func TestForwardTape(t *testing.T) {
	ig := newTestIntegrator(t, decayAdjoint(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	m := ig.NewMemory()
	out := ig.NewOutput()
	in := &Input{X0: []float64{1}, P: []float64{1}, RX0: []float64{1}}
	require.NoError(t, ig.Eval(m, in, out))

	require.Len(t, m.xTape, 3)
	assert.InDelta(t, 1, m.xTape[0][0], 1e-14)
	assert.InDelta(t, 0.5, m.xTape[1][0], 1e-14)
	assert.InDelta(t, 0.25, m.xTape[2][0], 1e-14)
}

func TestStats(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 5
	})
	m := ig.NewMemory()
	require.NoError(t, ig.Eval(m, &Input{X0: []float64{1}, P: []float64{1}}, ig.NewOutput()))
	assert.Equal(t, 5, m.Stats.FwdSteps)
	assert.Equal(t, 5, m.Stats.OracleCalls)
	assert.Equal(t, 0, m.Stats.BwdSteps)
}

func TestImplicitStats(t *testing.T) {
	ig := newTestIntegrator(t, algDecay(), NewImplicitEuler(), func(o *Options) {
		o.FiniteElements = 3
	})
	m := ig.NewMemory()
	require.NoError(t, ig.Eval(m, &Input{X0: []float64{1}}, ig.NewOutput()))
	assert.Equal(t, 3, m.Stats.RootfinderCalls)
	assert.Greater(t, m.Stats.RootfinderIters, 0)
}

func TestEvalInputLength(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), nil)
	err := ig.Eval(ig.NewMemory(), &Input{X0: []float64{1, 2}}, ig.NewOutput())
	require.ErrorIs(t, err, ErrConfig)
}

func TestExplicitSchemeRejectsAlgebraic(t *testing.T) {
	_, err := New(algDecay(), NewEuler(), DefaultOptions())
	require.ErrorIs(t, err, ErrConfig)
}

func TestRK4RejectsBackward(t *testing.T) {
	_, err := New(decayAdjoint(), NewRK4(), DefaultOptions())
	require.ErrorIs(t, err, ErrConfig)
}

func TestOptionValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero elements", func(o *Options) { o.FiniteElements = 0 }},
		{"single grid point", func(o *Options) { o.Grid = []float64{0} }},
		{"non-increasing grid", func(o *Options) { o.Grid = []float64{0, 1, 1} }},
		{"empty horizon", func(o *Options) { o.T0, o.TF = 1, 1 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opts := DefaultOptions()
			c.mutate(&opts)
			_, err := New(pureDecay(), NewEuler(), opts)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestNilInputsAreZero(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), nil)
	out := ig.NewOutput()
	// Zero initial state and parameters: everything stays at zero.
	require.NoError(t, ig.Eval(ig.NewMemory(), &Input{}, out))
	assert.Equal(t, 0.0, out.XF[0])
	assert.Equal(t, 0.0, out.QF[0])
}
