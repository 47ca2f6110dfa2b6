package integrator

import (
	"fmt"

	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/symbolic"
)

// Offsets are cumulative column offsets into the augmented outputs, one
// entry boundary per direction block with nonzero dimension. They are the
// single source of truth for splitting augmented results back into
// per-direction blocks.
type Offsets struct {
	X, Z, Q, P     []int
	RX, RZ, RQ, RP []int
}

// Split cuts one augmented output vector along an offset sequence.
func Split(buf []float64, off []int) [][]float64 {
	blocks := make([][]float64, 0, len(off)-1)
	for i := 1; i < len(off); i++ {
		blocks = append(blocks, buf[off[i-1]:off[i]])
	}
	return blocks
}

// augOffsets builds the offset table for nfwd forward and nadj adjoint
// directions. Forward directions run -1..nfwd-1 (index -1 being the
// nondifferentiated problem); adjoint directions append under the role swap:
// output sensitivities land in backward quantities and vice versa.
func (ig *Integrator) augOffsets(nfwd, nadj int) Offsets {
	d := ig.dims
	o := Offsets{
		X: []int{0}, Z: []int{0}, Q: []int{0}, P: []int{0},
		RX: []int{0}, RZ: []int{0}, RQ: []int{0}, RP: []int{0},
	}

	for dir := -1; dir < nfwd; dir++ {
		if d.NX > 0 {
			o.X = append(o.X, d.NX)
		}
		if d.NZ > 0 {
			o.Z = append(o.Z, d.NZ)
		}
		if d.NQ > 0 {
			o.Q = append(o.Q, d.NQ)
		}
		if d.NP > 0 {
			o.P = append(o.P, d.NP)
		}
		if d.NRX > 0 {
			o.RX = append(o.RX, d.NRX)
		}
		if d.NRZ > 0 {
			o.RZ = append(o.RZ, d.NRZ)
		}
		if d.NRQ > 0 {
			o.RQ = append(o.RQ, d.NRQ)
		}
		if d.NRP > 0 {
			o.RP = append(o.RP, d.NRP)
		}
	}

	for dir := 0; dir < nadj; dir++ {
		if d.NX > 0 {
			o.RX = append(o.RX, d.NX)
		}
		if d.NZ > 0 {
			o.RZ = append(o.RZ, d.NZ)
		}
		if d.NP > 0 {
			o.RQ = append(o.RQ, d.NP)
		}
		if d.NQ > 0 {
			o.RP = append(o.RP, d.NQ)
		}
		if d.NRX > 0 {
			o.X = append(o.X, d.NRX)
		}
		if d.NRZ > 0 {
			o.Z = append(o.Z, d.NRZ)
		}
		if d.NRP > 0 {
			o.Q = append(o.Q, d.NRP)
		}
		if d.NRQ > 0 {
			o.P = append(o.P, d.NRQ)
		}
	}

	for _, seq := range [][]int{o.X, o.Z, o.Q, o.P, o.RX, o.RZ, o.RQ, o.RP} {
		for i := 1; i < len(seq); i++ {
			seq[i] += seq[i-1]
		}
	}
	return o
}

// augFwd builds the problem augmented with nfwd forward sensitivity
// directions: block 0 holds the original variables and equations, block d+1
// one fresh seed block and its forward directional derivative. The time seed
// stays zero; sensitivities are never taken with respect to time.
func (ig *Integrator) augFwd(nfwd int) (*oracle.Problem, error) {
	p := ig.dae.Problem()

	augX := []symbolic.Vector{p.X}
	augZ := []symbolic.Vector{p.Z}
	augP := []symbolic.Vector{p.P}
	augRX := []symbolic.Vector{p.RX}
	augRZ := []symbolic.Vector{p.RZ}
	augRP := []symbolic.Vector{p.RP}

	augODE := []symbolic.Vector{p.ODE}
	augALG := []symbolic.Vector{p.ALG}
	augQUAD := []symbolic.Vector{p.QUAD}
	augRODE := []symbolic.Vector{p.RODE}
	augRALG := []symbolic.Vector{p.RALG}
	augRQUAD := []symbolic.Vector{p.RQUAD}

	seeds := make([]([oracle.NumIn]symbolic.Vector), nfwd)
	for dir := 0; dir < nfwd; dir++ {
		pref := fmt.Sprintf("fwd%d_", dir)
		seeds[dir][oracle.T] = symbolic.Zeros(len(p.T))
		sx := symbolic.Sym(pref+"x", len(p.X))
		sz := symbolic.Sym(pref+"z", len(p.Z))
		sp := symbolic.Sym(pref+"p", len(p.P))
		srx := symbolic.Sym(pref+"rx", len(p.RX))
		srz := symbolic.Sym(pref+"rz", len(p.RZ))
		srp := symbolic.Sym(pref+"rp", len(p.RP))
		seeds[dir][oracle.X] = sx
		seeds[dir][oracle.Z] = sz
		seeds[dir][oracle.P] = sp
		seeds[dir][oracle.RX] = srx
		seeds[dir][oracle.RZ] = srz
		seeds[dir][oracle.RP] = srp
		augX = append(augX, sx)
		augZ = append(augZ, sz)
		augP = append(augP, sp)
		augRX = append(augRX, srx)
		augRZ = append(augRZ, srz)
		augRP = append(augRP, srp)
	}

	sens, err := ig.dae.Forward(seeds)
	if err != nil {
		return nil, err
	}
	if len(sens) != nfwd {
		return nil, fmt.Errorf("%w: got %d forward blocks, want %d", ErrAugment, len(sens), nfwd)
	}
	for dir := 0; dir < nfwd; dir++ {
		augODE = append(augODE, symbolic.Project(sens[dir][oracle.ODE], len(p.X)))
		augALG = append(augALG, symbolic.Project(sens[dir][oracle.ALG], len(p.Z)))
		augQUAD = append(augQUAD, symbolic.Project(sens[dir][oracle.QUAD], len(p.QUAD)))
		augRODE = append(augRODE, symbolic.Project(sens[dir][oracle.RODE], len(p.RX)))
		augRALG = append(augRALG, symbolic.Project(sens[dir][oracle.RALG], len(p.RZ)))
		augRQUAD = append(augRQUAD, symbolic.Project(sens[dir][oracle.RQUAD], len(p.RQUAD)))
	}

	return &oracle.Problem{
		T:     p.T,
		X:     symbolic.Concat(augX...),
		Z:     symbolic.Concat(augZ...),
		P:     symbolic.Concat(augP...),
		RX:    symbolic.Concat(augRX...),
		RZ:    symbolic.Concat(augRZ...),
		RP:    symbolic.Concat(augRP...),
		ODE:   symbolic.Concat(augODE...),
		ALG:   symbolic.Concat(augALG...),
		QUAD:  symbolic.Concat(augQUAD...),
		RODE:  symbolic.Concat(augRODE...),
		RALG:  symbolic.Concat(augRALG...),
		RQUAD: symbolic.Concat(augRQUAD...),
	}, nil
}

// augAdj builds the problem augmented with nadj adjoint directions. Each
// direction seeds the oracle outputs in reverse mode, and the collected
// sensitivities swap roles: sensitivities of forward outputs become backward
// equations, sensitivities with respect to backward quantities become
// forward equations. One adjoint sweep of the DAE is thereby expressed as
// one more forward-plus-backward integration.
func (ig *Integrator) augAdj(nadj int) (*oracle.Problem, error) {
	p := ig.dae.Problem()

	augX := []symbolic.Vector{p.X}
	augZ := []symbolic.Vector{p.Z}
	augP := []symbolic.Vector{p.P}
	augRX := []symbolic.Vector{p.RX}
	augRZ := []symbolic.Vector{p.RZ}
	augRP := []symbolic.Vector{p.RP}

	augODE := []symbolic.Vector{p.ODE}
	augALG := []symbolic.Vector{p.ALG}
	augQUAD := []symbolic.Vector{p.QUAD}
	augRODE := []symbolic.Vector{p.RODE}
	augRALG := []symbolic.Vector{p.RALG}
	augRQUAD := []symbolic.Vector{p.RQUAD}

	seeds := make([]([oracle.NumOut]symbolic.Vector), nadj)
	for dir := 0; dir < nadj; dir++ {
		pref := fmt.Sprintf("adj%d_", dir)
		sode := symbolic.Sym(pref+"ode", len(p.X))
		salg := symbolic.Sym(pref+"alg", len(p.Z))
		squad := symbolic.Sym(pref+"quad", len(p.QUAD))
		srode := symbolic.Sym(pref+"rode", len(p.RX))
		sralg := symbolic.Sym(pref+"ralg", len(p.RZ))
		srquad := symbolic.Sym(pref+"rquad", len(p.RQUAD))
		seeds[dir][oracle.ODE] = sode
		seeds[dir][oracle.ALG] = salg
		seeds[dir][oracle.QUAD] = squad
		seeds[dir][oracle.RODE] = srode
		seeds[dir][oracle.RALG] = sralg
		seeds[dir][oracle.RQUAD] = srquad
		// Output seeds become backward variables, backward-output seeds
		// become forward variables.
		augRX = append(augRX, sode)
		augRZ = append(augRZ, salg)
		augRP = append(augRP, squad)
		augX = append(augX, srode)
		augZ = append(augZ, sralg)
		augP = append(augP, srquad)
	}

	sens, err := ig.dae.Reverse(seeds)
	if err != nil {
		return nil, err
	}
	if len(sens) != nadj {
		return nil, fmt.Errorf("%w: got %d adjoint blocks, want %d", ErrAugment, len(sens), nadj)
	}
	for dir := 0; dir < nadj; dir++ {
		augRODE = append(augRODE, symbolic.Project(sens[dir][oracle.X], len(p.X)))
		augRALG = append(augRALG, symbolic.Project(sens[dir][oracle.Z], len(p.Z)))
		augRQUAD = append(augRQUAD, symbolic.Project(sens[dir][oracle.P], len(p.P)))
		augODE = append(augODE, symbolic.Project(sens[dir][oracle.RX], len(p.RX)))
		augALG = append(augALG, symbolic.Project(sens[dir][oracle.RZ], len(p.RZ)))
		augQUAD = append(augQUAD, symbolic.Project(sens[dir][oracle.RP], len(p.RP)))
	}

	return &oracle.Problem{
		T:     p.T,
		X:     symbolic.Concat(augX...),
		Z:     symbolic.Concat(augZ...),
		P:     symbolic.Concat(augP...),
		RX:    symbolic.Concat(augRX...),
		RZ:    symbolic.Concat(augRZ...),
		RP:    symbolic.Concat(augRP...),
		ODE:   symbolic.Concat(augODE...),
		ALG:   symbolic.Concat(augALG...),
		QUAD:  symbolic.Concat(augQUAD...),
		RODE:  symbolic.Concat(augRODE...),
		RALG:  symbolic.Concat(augRALG...),
		RQUAD: symbolic.Concat(augRQUAD...),
	}, nil
}

// checkOffsets enforces the paired invariant between the built problem's
// column layout and the offset table.
func checkOffsets(prob *oracle.Problem, off Offsets) error {
	pairs := []struct {
		name string
		n    int
		off  []int
	}{
		{"x", len(prob.X), off.X},
		{"z", len(prob.Z), off.Z},
		{"q", len(prob.QUAD), off.Q},
		{"p", len(prob.P), off.P},
		{"rx", len(prob.RX), off.RX},
		{"rz", len(prob.RZ), off.RZ},
		{"rq", len(prob.RQUAD), off.RQ},
		{"rp", len(prob.RP), off.RP},
	}
	for _, pr := range pairs {
		if pr.off[len(pr.off)-1] != pr.n {
			return fmt.Errorf("%w: %s offsets end at %d, augmented block has %d entries",
				ErrAugment, pr.name, pr.off[len(pr.off)-1], pr.n)
		}
	}
	return nil
}

// derivedOptions are the options handed to a derivative integrator:
// tunables from AugmentedOptions when present, the horizon always inherited.
func (ig *Integrator) derivedOptions() Options {
	opts := ig.opts
	if a := ig.opts.Augmented; a != nil {
		o := *a
		o.T0, o.TF = opts.T0, opts.TF
		o.Grid, o.OutputT0 = opts.Grid, opts.OutputT0
		opts = o
	}
	return opts
}

// ForwardDerivative constructs a new integrator over the problem augmented
// with nfwd forward sensitivity directions, of the same concrete scheme
// kind, together with the offsets that split its outputs per direction.
func (ig *Integrator) ForwardDerivative(nfwd int) (*Integrator, Offsets, error) {
	if nfwd <= 0 {
		return nil, Offsets{}, fmt.Errorf("%w: need at least one forward direction", ErrAugment)
	}
	prob, err := ig.augFwd(nfwd)
	if err != nil {
		return nil, Offsets{}, err
	}
	off := ig.augOffsets(nfwd, 0)
	if err := checkOffsets(prob, off); err != nil {
		return nil, Offsets{}, err
	}
	aug, err := newIntegrator(prob, ig.scheme.Fresh(), ig.derivedOptions(), false)
	if err != nil {
		return nil, Offsets{}, err
	}
	return aug, off, nil
}

// ReverseDerivative constructs a new integrator over the problem augmented
// with nadj adjoint directions, plus the offsets splitting its outputs.
func (ig *Integrator) ReverseDerivative(nadj int) (*Integrator, Offsets, error) {
	if nadj <= 0 {
		return nil, Offsets{}, fmt.Errorf("%w: need at least one adjoint direction", ErrAugment)
	}
	prob, err := ig.augAdj(nadj)
	if err != nil {
		return nil, Offsets{}, err
	}
	off := ig.augOffsets(0, nadj)
	if err := checkOffsets(prob, off); err != nil {
		return nil, Offsets{}, err
	}
	aug, err := newIntegrator(prob, ig.scheme.Fresh(), ig.derivedOptions(), false)
	if err != nil {
		return nil, Offsets{}, err
	}
	return aug, off, nil
}
