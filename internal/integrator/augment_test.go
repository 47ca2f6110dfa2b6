package integrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAugOffsets(t *testing.T) {
	// decayAdjoint: nx=1, nz=0, np=1, nq=1, nrx=1, nrz=0, nrp=0, nrq=1
	ig := newTestIntegrator(t, decayAdjoint(), NewEuler(), nil)
	off := ig.augOffsets(2, 1)

	// Forward directions contribute a block per quantity; the adjoint
	// direction swaps roles (output seeds land in backward quantities).
	assert.Equal(t, []int{0, 1, 2, 3, 4}, off.X)  // x, 2 fwd, 1 adj (nrx)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, off.RX) // rx, 2 fwd, 1 adj (nx)
	assert.Equal(t, []int{0, 1, 2, 3}, off.Q)     // q, 2 fwd; adj adds nrp=0
	assert.Equal(t, []int{0, 1, 2, 3, 4}, off.RQ) // rq, 2 fwd, 1 adj (np)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, off.P)  // p, 2 fwd, 1 adj (nrq)
	assert.Equal(t, []int{0, 1}, off.RP)          // adj only (nq)
	assert.Equal(t, []int{0}, off.Z)
	assert.Equal(t, []int{0}, off.RZ)
}

func TestForwardDerivative(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	fwd, off, err := ig.ForwardDerivative(2)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3}, off.X)
	require.Equal(t, []int{0, 1, 2, 3}, off.P)

	// Direction 0 seeds x0, direction 1 seeds p.
	in := &Input{
		X0: []float64{1, 1, 0},
		P:  []float64{1, 0, 1},
	}
	out := evalOnce(t, fwd, in)

	// Nominal, d xf / d x0, d xf / d p of the two-step Euler map.
	assert.InDelta(t, 0.25, out.XF[0], 1e-14)
	assert.InDelta(t, 0.25, out.XF[1], 1e-14)
	assert.InDelta(t, -0.5, out.XF[2], 1e-14)
}

func TestForwardDerivativeQuadrature(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	fwd, off, err := ig.ForwardDerivative(1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, off.Q)

	// Seed x0: q = h*(x0 + x1) so dq/dx0 = h*(1 + (1-h)) = 0.75.
	out := evalOnce(t, fwd, &Input{
		X0: []float64{1, 1},
		P:  []float64{1, 0},
	})
	assert.InDelta(t, 0.75, out.QF[0], 1e-14)
	assert.InDelta(t, 0.75, out.QF[1], 1e-14)
}

func TestReverseDerivative(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	rev, off, err := ig.ReverseDerivative(1)
	require.NoError(t, err)
	// The single adjoint direction seeds xf through a backward state and
	// delivers d xf / d p through a backward quadrature.
	require.Equal(t, []int{0, 1}, off.RX)
	require.Equal(t, []int{0, 1}, off.RQ)

	out := evalOnce(t, rev, &Input{
		X0:  []float64{1},
		P:   []float64{1},
		RX0: []float64{1},
	})
	assert.InDelta(t, 0.25, out.RXF[0], 1e-14)
	assert.InDelta(t, -0.5, out.RQF[0], 1e-14)
}

func TestReverseThenForwardAgree(t *testing.T) {
	// The parameter gradient must agree between forward and reverse
	// augmentation of the same discrete map.
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.FiniteElements = 4
	})

	fwd, offF, err := ig.ForwardDerivative(1)
	require.NoError(t, err)
	fo := evalOnce(t, fwd, &Input{
		X0: []float64{1, 0},
		P:  []float64{1, 1},
	})
	dxdpForward := fo.XF[offF.X[1]:offF.X[2]][0]

	rev, _, err := ig.ReverseDerivative(1)
	require.NoError(t, err)
	ro := evalOnce(t, rev, &Input{
		X0:  []float64{1},
		P:   []float64{1},
		RX0: []float64{1},
	})
	assert.InDelta(t, dxdpForward, ro.RQF[0], 1e-12)
}

func TestDerivativeDirectionCount(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), nil)
	_, _, err := ig.ForwardDerivative(0)
	require.ErrorIs(t, err, ErrAugment)
	_, _, err = ig.ReverseDerivative(-1)
	require.ErrorIs(t, err, ErrAugment)
}

func TestDerivedOptions(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewEuler(), func(o *Options) {
		o.T0, o.TF = 0, 2
		o.FiniteElements = 8
		o.Augmented = &Options{
			FiniteElements: 16,
			Rootfinder:     "fixed_point",
		}
	})
	derived := ig.derivedOptions()
	// Tunables come from the augmented block, the horizon from the parent.
	assert.Equal(t, 16, derived.FiniteElements)
	assert.Equal(t, "fixed_point", derived.Rootfinder)
	assert.Equal(t, 0.0, derived.T0)
	assert.Equal(t, 2.0, derived.TF)
}

func TestDerivativeSchemeKindPreserved(t *testing.T) {
	ig := newTestIntegrator(t, pureDecay(), NewImplicitEuler(), func(o *Options) {
		o.FiniteElements = 2
	})
	fwd, _, err := ig.ForwardDerivative(1)
	require.NoError(t, err)
	fs, ok := fwd.scheme.(*FixedStep)
	require.True(t, ok)
	assert.Equal(t, KindImplicitEuler, fs.Kind())
}
