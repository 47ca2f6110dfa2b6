package integrator

import (
	"fmt"
	"math"

	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/rootfinder"
)

// Scheme kinds.
const (
	KindEuler         = "euler"
	KindRK4           = "rk4"
	KindImplicitEuler = "implicit_euler"
)

// stepEps absorbs floating-point noise when snapping an output time to a
// step boundary. Output times never interpolate: they round to whole steps.
const stepEps = 1e-9

// RootfinderFactory builds the solver closing the per-step implicit
// equations. Injected by whoever assembles schemes by name.
type RootfinderFactory func(name string, opts rootfinder.Options) (rootfinder.Rootfinder, error)

// FixedStep advances the problem over a uniform grid of FiniteElements
// steps. The explicit kinds (euler, rk4) update the state directly; the
// implicit kind closes a per-step nonlinear system in the stacked unknown
// (x_{k+1}, z_{k+1}). When backward states exist, the forward sweep tapes
// enough snapshots for an exact step-by-step adjoint replay.
type FixedStep struct {
	kind string
	ig   *Integrator

	nk int     // number of steps over the horizon
	h  float64 // step length

	nZ  int // implicit unknowns per forward step
	nRZ int // implicit unknowns per backward step

	rf    rootfinder.Rootfinder
	rfB   rootfinder.Rootfinder
	newRF RootfinderFactory
}

// NewEuler returns an explicit forward Euler scheme.
func NewEuler() *FixedStep { return &FixedStep{kind: KindEuler} }

// NewRK4 returns the classical explicit fourth-order Runge-Kutta scheme.
func NewRK4() *FixedStep { return &FixedStep{kind: KindRK4} }

// NewImplicitEuler returns a backward Euler scheme. Each step solves the
// combined differential and algebraic residual with a rootfinder.
func NewImplicitEuler() *FixedStep { return &FixedStep{kind: KindImplicitEuler} }

// Kind returns the scheme name.
func (fs *FixedStep) Kind() string { return fs.kind }

// SetRootfinderFactory overrides how per-step rootfinders are constructed.
// Must be called before the scheme is handed to New.
func (fs *FixedStep) SetRootfinderFactory(f RootfinderFactory) { fs.newRF = f }

// Fresh returns an unconfigured scheme of the same kind, sharing the
// rootfinder factory. Derivative integrators step their augmented problem
// with the same method as the parent.
func (fs *FixedStep) Fresh() Scheme {
	return &FixedStep{kind: fs.kind, newRF: fs.newRF}
}

func (fs *FixedStep) Init(ig *Integrator) error {
	fs.ig = ig
	d := ig.dims
	fs.nk = ig.opts.FiniteElements
	fs.h = (ig.grid[len(ig.grid)-1] - ig.grid[0]) / float64(fs.nk)

	switch fs.kind {
	case KindEuler, KindRK4:
		if d.NZ > 0 || d.NRZ > 0 {
			return fmt.Errorf("%w: scheme %s cannot handle algebraic states, use %s",
				ErrConfig, fs.kind, KindImplicitEuler)
		}
		if fs.kind == KindRK4 && d.NRX > 0 {
			return fmt.Errorf("%w: scheme %s does not support backward states", ErrConfig, fs.kind)
		}
	case KindImplicitEuler:
		fs.nZ = d.NX + d.NZ
		if d.NRX > 0 {
			fs.nRZ = d.NRX + d.NRZ
		}
		factory := fs.newRF
		if factory == nil {
			factory = defaultRootfinder
		}
		var err error
		fs.rf, err = factory(ig.opts.Rootfinder, ig.opts.RootfinderOptions)
		if err != nil {
			return err
		}
		if fs.nRZ > 0 {
			fs.rfB, err = factory(ig.opts.Rootfinder, ig.opts.RootfinderOptions)
			if err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown scheme %q", ErrConfig, fs.kind)
	}
	return nil
}

func defaultRootfinder(name string, opts rootfinder.Options) (rootfinder.Rootfinder, error) {
	switch name {
	case "", "newton":
		return rootfinder.NewNewton(opts), nil
	case "fixed_point":
		return rootfinder.NewFixedPoint(opts), nil
	}
	return nil, fmt.Errorf("%w: unknown rootfinder %q", ErrConfig, name)
}

func (fs *FixedStep) InitMemory(m *Memory) {
	d := fs.ig.dims
	m.Z = make([]float64, fs.nZ)
	m.ZPrev = make([]float64, fs.nZ)
	m.RZ = make([]float64, fs.nRZ)
	m.RZPrev = make([]float64, fs.nRZ)
	if d.NRX > 0 {
		m.xTape = make([][]float64, fs.nk+1)
		for k := range m.xTape {
			m.xTape[k] = make([]float64, d.NX)
		}
		m.zTape = make([][]float64, fs.nk)
		for k := range m.zTape {
			m.zTape[k] = make([]float64, fs.nZ)
		}
	}
	if fs.kind == KindRK4 {
		m.wK = make([][]float64, 4)
		m.wQK = make([][]float64, 4)
		for s := 0; s < 4; s++ {
			m.wK[s] = make([]float64, d.NX)
			m.wQK[s] = make([]float64, d.NQ)
		}
		m.wXS = make([]float64, d.NX)
	}
}

func (fs *FixedStep) Reset(m *Memory, t float64, x, z, p []float64) error {
	m.k = 0
	m.t = t
	copy(m.x, x)
	copy(m.z, z)
	copy(m.p, p)
	for i := range m.q {
		m.q[i] = 0
	}
	// Not-a-number marks the implicit unknowns as unseeded; the first step
	// falls back to the reset values as its guess.
	for i := range m.Z {
		m.Z[i] = math.NaN()
	}
	if m.xTape != nil {
		copy(m.xTape[0], x)
	}
	return nil
}

func (fs *FixedStep) Advance(m *Memory, t float64, x, z, q []float64) error {
	t0 := fs.ig.grid[0]
	kOut := int(math.Ceil((t-t0)/fs.h - stepEps))
	if kOut > fs.nk {
		kOut = fs.nk
	}
	for m.k < kOut {
		copy(m.xPrev, m.x)
		copy(m.qPrev, m.q)
		copy(m.ZPrev, m.Z)
		if err := fs.takeStep(m); err != nil {
			return err
		}
		if m.xTape != nil {
			copy(m.xTape[m.k+1], m.x)
			copy(m.zTape[m.k], m.Z)
		}
		m.k++
		m.t = t0 + float64(m.k)*fs.h
		m.Stats.FwdSteps++
	}
	d := fs.ig.dims
	if x != nil {
		copy(x, m.x)
	}
	if z != nil && d.NZ > 0 {
		copy(z, m.Z[fs.nZ-d.NZ:])
	}
	if q != nil {
		copy(q, m.q)
	}
	return nil
}

func (fs *FixedStep) ResetB(m *Memory, t float64, rx, rz, rp []float64) error {
	m.k = fs.nk
	m.t = t
	copy(m.rx, rx)
	copy(m.rz, rz)
	copy(m.rp, rp)
	for i := range m.rq {
		m.rq[i] = 0
	}
	for i := range m.RZ {
		m.RZ[i] = math.NaN()
	}
	return nil
}

func (fs *FixedStep) Retreat(m *Memory, t float64, rx, rz, rq []float64) error {
	t0 := fs.ig.grid[0]
	kOut := int(math.Floor((t-t0)/fs.h + stepEps))
	if kOut < 0 {
		kOut = 0
	}
	for m.k > kOut {
		m.k--
		m.t = t0 + float64(m.k)*fs.h
		copy(m.rxPrev, m.rx)
		copy(m.rqPrev, m.rq)
		copy(m.RZPrev, m.RZ)
		if err := fs.takeStepB(m); err != nil {
			return err
		}
		m.Stats.BwdSteps++
	}
	d := fs.ig.dims
	if rx != nil {
		copy(rx, m.rx)
	}
	if rz != nil && d.NRZ > 0 {
		copy(rz, m.RZ[fs.nRZ-d.NRZ:])
	}
	if rq != nil {
		copy(rq, m.rq)
	}
	return nil
}

func (fs *FixedStep) takeStep(m *Memory) error {
	switch fs.kind {
	case KindEuler:
		return fs.stepEuler(m)
	case KindRK4:
		return fs.stepRK4(m)
	default:
		return fs.stepImplicit(m)
	}
}

func (fs *FixedStep) stepEuler(m *Memory) error {
	d := fs.ig.dims
	m.tbuf[0] = m.t
	var a oracle.Arg
	var r oracle.Res
	a[oracle.T] = m.tbuf
	a[oracle.X] = m.xPrev
	a[oracle.P] = m.p
	r[oracle.ODE] = m.wX
	r[oracle.QUAD] = m.wQ
	if err := fs.ig.dae.Eval(&a, &r); err != nil {
		return err
	}
	m.Stats.OracleCalls++
	for i := 0; i < d.NX; i++ {
		m.x[i] = m.xPrev[i] + fs.h*m.wX[i]
	}
	for i := 0; i < d.NQ; i++ {
		m.q[i] = m.qPrev[i] + fs.h*m.wQ[i]
	}
	return nil
}

var rk4Nodes = [4]float64{0, 0.5, 0.5, 1}
var rk4Weights = [4]float64{1.0 / 6, 2.0 / 6, 2.0 / 6, 1.0 / 6}

func (fs *FixedStep) stepRK4(m *Memory) error {
	d := fs.ig.dims
	for s := 0; s < 4; s++ {
		copy(m.wXS, m.xPrev)
		if s > 0 {
			for i := 0; i < d.NX; i++ {
				m.wXS[i] += fs.h * rk4Nodes[s] * m.wK[s-1][i]
			}
		}
		m.tbuf[0] = m.t + rk4Nodes[s]*fs.h
		var a oracle.Arg
		var r oracle.Res
		a[oracle.T] = m.tbuf
		a[oracle.X] = m.wXS
		a[oracle.P] = m.p
		r[oracle.ODE] = m.wK[s]
		r[oracle.QUAD] = m.wQK[s]
		if err := fs.ig.dae.Eval(&a, &r); err != nil {
			return err
		}
		m.Stats.OracleCalls++
	}
	copy(m.x, m.xPrev)
	copy(m.q, m.qPrev)
	for s := 0; s < 4; s++ {
		w := fs.h * rk4Weights[s]
		for i := 0; i < d.NX; i++ {
			m.x[i] += w * m.wK[s][i]
		}
		for i := 0; i < d.NQ; i++ {
			m.q[i] += w * m.wQK[s][i]
		}
	}
	return nil
}

func (fs *FixedStep) stepImplicit(m *Memory) error {
	d := fs.ig.dims

	// The previous solution is the warm start; right after a reset the
	// unknowns are NaN and the reset values serve instead.
	if fs.nZ > 0 && math.IsNaN(m.Z[0]) {
		copy(m.Z[:d.NX], m.xPrev)
		copy(m.Z[d.NX:], m.z)
	}

	sys := &stepSystem{fs: fs, m: m}
	iters, err := fs.rf.Solve(sys, m.Z)
	m.Stats.RootfinderCalls++
	m.Stats.RootfinderIters += iters
	if err != nil {
		return fmt.Errorf("%w: forward step %d at t=%g: %w", ErrStep, m.k, m.t, err)
	}
	copy(m.x, m.Z[:d.NX])

	if d.NQ > 0 {
		m.tbuf[0] = m.t + fs.h
		var a oracle.Arg
		var r oracle.Res
		a[oracle.T] = m.tbuf
		a[oracle.X] = m.Z[:d.NX]
		a[oracle.Z] = m.Z[d.NX:]
		a[oracle.P] = m.p
		r[oracle.QUAD] = m.wQ
		if err := fs.ig.dae.Eval(&a, &r); err != nil {
			return err
		}
		m.Stats.OracleCalls++
		for i := 0; i < d.NQ; i++ {
			m.q[i] = m.qPrev[i] + fs.h*m.wQ[i]
		}
	} else {
		copy(m.q, m.qPrev)
	}
	return nil
}

// stepSystem is the backward Euler residual in the stacked unknown
// (x_{k+1}, z_{k+1}):
//
//	0 = x_{k+1} - x_k - h*ode(t_{k+1}, x_{k+1}, z_{k+1}, p)
//	0 = alg(t_{k+1}, x_{k+1}, z_{k+1}, p)
type stepSystem struct {
	fs *FixedStep
	m  *Memory
	tb [1]float64
}

func (s *stepSystem) Dim() int { return s.fs.nZ }

func (s *stepSystem) Residual(zz, r []float64) error {
	d := s.fs.ig.dims
	m := s.m
	s.tb[0] = m.t + s.fs.h
	var a oracle.Arg
	var res oracle.Res
	a[oracle.T] = s.tb[:]
	a[oracle.X] = zz[:d.NX]
	a[oracle.Z] = zz[d.NX:]
	a[oracle.P] = m.p
	res[oracle.ODE] = r[:d.NX]
	res[oracle.ALG] = r[d.NX:]
	if err := s.fs.ig.dae.Eval(&a, &res); err != nil {
		return err
	}
	m.Stats.OracleCalls++
	for i := 0; i < d.NX; i++ {
		r[i] = zz[i] - m.xPrev[i] - s.fs.h*r[i]
	}
	return nil
}

func (fs *FixedStep) takeStepB(m *Memory) error {
	if fs.kind == KindImplicitEuler {
		return fs.stepImplicitB(m)
	}
	return fs.stepEulerB(m)
}

// stepEulerB is the exact discrete adjoint of the forward Euler map: the
// backward rate is evaluated at the taped forward state of step k and the
// incoming adjoint rx_{k+1}.
func (fs *FixedStep) stepEulerB(m *Memory) error {
	d := fs.ig.dims
	m.tbuf[0] = m.t
	var a oracle.Arg
	var r oracle.Res
	a[oracle.T] = m.tbuf
	a[oracle.X] = m.xTape[m.k]
	a[oracle.P] = m.p
	a[oracle.RX] = m.rxPrev
	a[oracle.RP] = m.rp
	r[oracle.RODE] = m.wRX
	r[oracle.RQUAD] = m.wRQ
	if err := fs.ig.dae.Eval(&a, &r); err != nil {
		return err
	}
	m.Stats.OracleCalls++
	for i := 0; i < d.NRX; i++ {
		m.rx[i] = m.rxPrev[i] + fs.h*m.wRX[i]
	}
	for i := 0; i < d.NRQ; i++ {
		m.rq[i] = m.rqPrev[i] + fs.h*m.wRQ[i]
	}
	return nil
}

func (fs *FixedStep) stepImplicitB(m *Memory) error {
	d := fs.ig.dims

	if fs.nRZ > 0 && math.IsNaN(m.RZ[0]) {
		copy(m.RZ[:d.NRX], m.rxPrev)
		copy(m.RZ[d.NRX:], m.rz)
	}

	sys := &stepSystemB{fs: fs, m: m}
	iters, err := fs.rfB.Solve(sys, m.RZ)
	m.Stats.RootfinderCalls++
	m.Stats.RootfinderIters += iters
	if err != nil {
		return fmt.Errorf("%w: backward step %d at t=%g: %w", ErrStep, m.k, m.t, err)
	}
	copy(m.rx, m.RZ[:d.NRX])

	if d.NRQ > 0 {
		m.tbuf[0] = m.t + fs.h
		var a oracle.Arg
		var r oracle.Res
		a[oracle.T] = m.tbuf
		a[oracle.X] = m.zTape[m.k][:d.NX]
		a[oracle.Z] = m.zTape[m.k][d.NX:]
		a[oracle.P] = m.p
		a[oracle.RX] = m.RZ[:d.NRX]
		a[oracle.RZ] = m.RZ[d.NRX:]
		a[oracle.RP] = m.rp
		r[oracle.RQUAD] = m.wRQ
		if err := fs.ig.dae.Eval(&a, &r); err != nil {
			return err
		}
		m.Stats.OracleCalls++
		for i := 0; i < d.NRQ; i++ {
			m.rq[i] = m.rqPrev[i] + fs.h*m.wRQ[i]
		}
	} else {
		copy(m.rq, m.rqPrev)
	}
	return nil
}

// stepSystemB mirrors stepSystem for the backward sweep. The forward stage
// values of step k are read from the tape; the residual is evaluated at
// t_{k+1}, matching the point the forward step was closed at.
type stepSystemB struct {
	fs *FixedStep
	m  *Memory
	tb [1]float64
}

func (s *stepSystemB) Dim() int { return s.fs.nRZ }

func (s *stepSystemB) Residual(rr, r []float64) error {
	d := s.fs.ig.dims
	m := s.m
	s.tb[0] = m.t + s.fs.h
	var a oracle.Arg
	var res oracle.Res
	a[oracle.T] = s.tb[:]
	a[oracle.X] = m.zTape[m.k][:d.NX]
	a[oracle.Z] = m.zTape[m.k][d.NX:]
	a[oracle.P] = m.p
	a[oracle.RX] = rr[:d.NRX]
	a[oracle.RZ] = rr[d.NRX:]
	a[oracle.RP] = m.rp
	res[oracle.RODE] = r[:d.NRX]
	res[oracle.RALG] = r[d.NRX:]
	if err := s.fs.ig.dae.Eval(&a, &res); err != nil {
		return err
	}
	m.Stats.OracleCalls++
	for i := 0; i < d.NRX; i++ {
		r[i] = rr[i] - m.rxPrev[i] - s.fs.h*r[i]
	}
	return nil
}
