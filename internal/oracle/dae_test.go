package oracle

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/daekit/internal/symbolic"
)

// decayProblem is dx/dt = -p*x with dq/dt = x and the matching exact adjoint
// pair.
func decayProblem() *Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 1)
	p := symbolic.Sym("p", 1)
	rx := symbolic.Sym("rx", 1)
	return &Problem{
		T: t, X: x, P: p, RX: rx,
		ODE:   symbolic.Vector{symbolic.Neg(symbolic.Mul(p[0], x[0]))},
		QUAD:  symbolic.Vector{x[0]},
		RODE:  symbolic.Vector{symbolic.Neg(symbolic.Mul(p[0], rx[0]))},
		RQUAD: symbolic.Vector{symbolic.Neg(symbolic.Mul(x[0], rx[0]))},
	}
}

func TestValidatePairing(t *testing.T) {
	p := decayProblem()
	p.ODE = nil
	if err := p.Validate(); err == nil {
		t.Error("expected pairing error for missing ode")
	}
}

func TestValidateBackwardWithoutStates(t *testing.T) {
	p := decayProblem()
	p.RX = nil
	p.RODE = nil
	if err := p.Validate(); err == nil {
		t.Error("expected error for backward quantities without backward states")
	}
}

func TestValidateNonVariableInput(t *testing.T) {
	p := decayProblem()
	p.X = symbolic.Vector{symbolic.Const(1)}
	if err := p.Validate(); err == nil {
		t.Error("expected non-variable input error")
	}
}

func TestNewRejectsDuplicateVariable(t *testing.T) {
	p := decayProblem()
	p.P = p.X
	if _, err := New(p); err == nil {
		t.Error("expected duplicate variable error")
	}
}

func TestEval(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var a Arg
	var r Res
	a[X] = []float64{2}
	a[P] = []float64{3}
	ode := []float64{0}
	quad := []float64{0}
	r[ODE] = ode
	r[QUAD] = quad
	if err := d.Eval(&a, &r); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if math.Abs(ode[0]-(-6)) > 1e-12 {
		t.Errorf("ode = %g, want -6", ode[0])
	}
	if quad[0] != 2 {
		t.Errorf("quad = %g, want 2", quad[0])
	}
}

func TestEvalLengthCheck(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var a Arg
	var r Res
	a[X] = []float64{1, 2}
	if err := d.Eval(&a, &r); !errors.Is(err, ErrSlotMismatch) {
		t.Errorf("err = %v, want ErrSlotMismatch", err)
	}
}

func TestJacSparsity(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	jx := d.JacSparsity(X, ODE)
	if jx.NRows() != 1 || jx.NCols() != 1 || !jx.Has(0, 0) {
		t.Error("d ode / d x missing")
	}
	// The quadrature rate does not depend on p.
	jq := d.JacSparsity(P, QUAD)
	if jq.NNZ() != 0 {
		t.Error("d quad / d p should be empty")
	}
}

func TestSpForward(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var a BoolArg
	var r BoolRes
	a[P] = []bool{true}
	ode := []bool{false}
	quad := []bool{false}
	r[ODE] = ode
	r[QUAD] = quad
	d.SpForward(&a, &r)
	if !ode[0] {
		t.Error("ode must depend on p")
	}
	if quad[0] {
		t.Error("quad must not depend on p")
	}
}

func TestSpReverse(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var a BoolArg
	var r BoolRes
	xbits := []bool{false}
	pbits := []bool{false}
	a[X] = xbits
	a[P] = pbits
	seed := []bool{true}
	r[ODE] = seed
	d.SpReverse(&a, &r)
	if !xbits[0] || !pbits[0] {
		t.Errorf("ode seed must reach x and p, got x=%v p=%v", xbits[0], pbits[0])
	}
	if seed[0] {
		t.Error("consumed seed must be cleared")
	}
}

func TestForwardSeedShapeChecked(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	seeds := make([]([NumIn]symbolic.Vector), 1)
	// Leave every block nil: lengths cannot match.
	if _, err := d.Forward(seeds); !errors.Is(err, ErrBlockCount) {
		t.Errorf("err = %v, want ErrBlockCount", err)
	}
}

func TestForwardDirectionalDerivative(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	prob := d.Problem()

	seeds := make([]([NumIn]symbolic.Vector), 1)
	dx := symbolic.Sym("dx", 1)
	seeds[0][T] = symbolic.Zeros(1)
	seeds[0][X] = dx
	seeds[0][Z] = symbolic.Zeros(0)
	seeds[0][P] = symbolic.Zeros(1)
	seeds[0][RX] = symbolic.Zeros(1)
	seeds[0][RZ] = symbolic.Zeros(0)
	seeds[0][RP] = symbolic.Zeros(0)

	sens, err := d.Forward(seeds)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	// d(-p*x)/dx * dx = -p*dx
	env := symbolic.Env{prob.P[0]: 3, dx[0]: 2}
	got := sens[0][ODE][0].Eval(env)
	if math.Abs(got-(-6)) > 1e-12 {
		t.Errorf("ode sensitivity = %g, want -6", got)
	}
}

func TestReverseDirectionalDerivative(t *testing.T) {
	d, err := New(decayProblem())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	prob := d.Problem()

	seeds := make([]([NumOut]symbolic.Vector), 1)
	adj := symbolic.Sym("adj", 1)
	seeds[0][ODE] = adj
	seeds[0][ALG] = symbolic.Zeros(0)
	seeds[0][QUAD] = symbolic.Zeros(1)
	seeds[0][RODE] = symbolic.Zeros(1)
	seeds[0][RALG] = symbolic.Zeros(0)
	seeds[0][RQUAD] = symbolic.Zeros(1)

	sens, err := d.Reverse(seeds)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	// adjoint of x through ode = -p*adj; adjoint of p = -x*adj
	env := symbolic.Env{prob.P[0]: 3, prob.X[0]: 2, adj[0]: 1}
	gx := sens[0][X][0].Eval(env)
	gp := sens[0][P][0].Eval(env)
	if math.Abs(gx-(-3)) > 1e-12 {
		t.Errorf("x adjoint = %g, want -3", gx)
	}
	if math.Abs(gp-(-2)) > 1e-12 {
		t.Errorf("p adjoint = %g, want -2", gp)
	}
}
