package oracle

import (
	"fmt"

	"github.com/san-kum/daekit/internal/sparsity"
	"github.com/san-kum/daekit/internal/symbolic"
)

// Arg holds numeric oracle inputs, one buffer per slot. A nil buffer means
// the slot is zero-filled.
type Arg [NumIn][]float64

// Res holds numeric oracle outputs. A nil buffer skips that slot.
type Res [NumOut][]float64

// BoolArg and BoolRes are the Boolean-tainted analogues used for sparsity
// propagation.
type BoolArg [NumIn][]bool
type BoolRes [NumOut][]bool

type varRef struct {
	slot InSlot
	idx  int
}

// DAE is the concrete oracle over the symbolic representation. It supports
// point evaluation, structural Jacobian queries, Boolean dependency
// propagation in both directions, and symbolic directional derivatives. A
// DAE is immutable after construction and safe for shared reads.
type DAE struct {
	prob *Problem
	ins  [NumIn]symbolic.Vector
	outs [NumOut]symbolic.Vector
	refs map[*symbolic.Expr]varRef
	deps [NumOut][]map[*symbolic.Expr]bool
}

// New validates the problem and precomputes per-equation dependency sets.
func New(p *Problem) (*DAE, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	d := &DAE{
		prob: p,
		ins:  [NumIn]symbolic.Vector{p.T, p.X, p.Z, p.P, p.RX, p.RZ, p.RP},
		outs: [NumOut]symbolic.Vector{p.ODE, p.ALG, p.QUAD, p.RODE, p.RALG, p.RQUAD},
		refs: make(map[*symbolic.Expr]varRef),
	}
	for s := InSlot(0); s < NumIn; s++ {
		for i, v := range d.ins[s] {
			if _, dup := d.refs[v]; dup {
				return nil, fmt.Errorf("%w: variable %s appears in two slots", ErrDimensionMismatch, v.Name())
			}
			d.refs[v] = varRef{slot: s, idx: i}
		}
	}
	for s := OutSlot(0); s < NumOut; s++ {
		d.deps[s] = make([]map[*symbolic.Expr]bool, len(d.outs[s]))
		for i, e := range d.outs[s] {
			d.deps[s][i] = e.Vars()
		}
	}
	return d, nil
}

// Problem returns the underlying symbolic description.
func (d *DAE) Problem() *Problem { return d.prob }

// Dims returns the problem dimensions.
func (d *DAE) Dims() Dims { return d.prob.Dims() }

// In returns the variable vector of an input slot.
func (d *DAE) In(s InSlot) symbolic.Vector { return d.ins[s] }

// Out returns the expression vector of an output slot.
func (d *DAE) Out(s OutSlot) symbolic.Vector { return d.outs[s] }

// Eval evaluates the requested output slots at the given point.
func (d *DAE) Eval(arg *Arg, res *Res) error {
	env := make(symbolic.Env)
	for s := InSlot(0); s < NumIn; s++ {
		buf := arg[s]
		if buf == nil {
			continue
		}
		if len(buf) != len(d.ins[s]) {
			return fmt.Errorf("%w: input %s has %d entries, want %d",
				ErrSlotMismatch, s, len(buf), len(d.ins[s]))
		}
		for i, v := range d.ins[s] {
			env[v] = buf[i]
		}
	}
	for s := OutSlot(0); s < NumOut; s++ {
		buf := res[s]
		if buf == nil {
			continue
		}
		if len(buf) != len(d.outs[s]) {
			return fmt.Errorf("%w: output %s has %d entries, want %d",
				ErrSlotMismatch, s, len(buf), len(d.outs[s]))
		}
		d.outs[s].Eval(env, buf)
	}
	return nil
}

// JacSparsity returns the structural Jacobian pattern of one output slot
// with respect to one input slot.
func (d *DAE) JacSparsity(in InSlot, out OutSlot) *sparsity.Pattern {
	var rows, cols []int
	for i := range d.outs[out] {
		set := d.deps[out][i]
		for j, v := range d.ins[in] {
			if set[v] {
				rows = append(rows, i)
				cols = append(cols, j)
			}
		}
	}
	p, err := sparsity.FromTriplets(len(d.outs[out]), len(d.ins[in]), rows, cols)
	if err != nil {
		// Triplets are generated in range by construction.
		panic(err)
	}
	return p
}

// SpForward propagates Boolean dependency bits from inputs to outputs. A
// requested output entry is tainted when any input entry it structurally
// depends on is tainted. Nil slots are skipped.
func (d *DAE) SpForward(arg *BoolArg, res *BoolRes) {
	for s := OutSlot(0); s < NumOut; s++ {
		buf := res[s]
		if buf == nil {
			continue
		}
		for i := range buf {
			bit := false
			for v := range d.deps[s][i] {
				ref, ok := d.refs[v]
				if !ok {
					continue
				}
				in := arg[ref.slot]
				if in != nil && in[ref.idx] {
					bit = true
					break
				}
			}
			buf[i] = bit
		}
	}
}

// SpReverse propagates Boolean seeds at the outputs back onto the inputs,
// ORing into the argument buffers and clearing the consumed seeds.
func (d *DAE) SpReverse(arg *BoolArg, res *BoolRes) {
	for s := OutSlot(0); s < NumOut; s++ {
		buf := res[s]
		if buf == nil {
			continue
		}
		for i := range buf {
			if !buf[i] {
				continue
			}
			for v := range d.deps[s][i] {
				ref, ok := d.refs[v]
				if !ok {
					continue
				}
				if in := arg[ref.slot]; in != nil {
					in[ref.idx] = true
				}
			}
			buf[i] = false
		}
	}
}

// Forward computes symbolic forward directional derivatives of every output
// slot, one block per seed direction. Every seed vector must match its
// slot's dimension exactly; a mismatch is a fatal configuration error.
func (d *DAE) Forward(seeds []([NumIn]symbolic.Vector)) ([]([NumOut]symbolic.Vector), error) {
	sens := make([]([NumOut]symbolic.Vector), len(seeds))
	for dir := range seeds {
		sm := make(symbolic.Seeds)
		for s := InSlot(0); s < NumIn; s++ {
			sv := seeds[dir][s]
			if len(sv) != len(d.ins[s]) {
				return nil, fmt.Errorf("%w: direction %d input %s has %d seeds, want %d",
					ErrBlockCount, dir, s, len(sv), len(d.ins[s]))
			}
			for i, v := range d.ins[s] {
				sm[v] = sv[i]
			}
		}
		for s := OutSlot(0); s < NumOut; s++ {
			out := make(symbolic.Vector, len(d.outs[s]))
			for i, e := range d.outs[s] {
				out[i] = symbolic.Deriv(e, sm)
			}
			sens[dir][s] = out
		}
	}
	return sens, nil
}

// Reverse computes symbolic reverse directional derivatives: seeds at the
// outputs, sensitivities at the inputs. Block shapes are checked exactly.
func (d *DAE) Reverse(seeds []([NumOut]symbolic.Vector)) ([]([NumIn]symbolic.Vector), error) {
	sens := make([]([NumIn]symbolic.Vector), len(seeds))
	for dir := range seeds {
		var outs, outSeeds []*symbolic.Expr
		for s := OutSlot(0); s < NumOut; s++ {
			sv := seeds[dir][s]
			if len(sv) != len(d.outs[s]) {
				return nil, fmt.Errorf("%w: direction %d output %s has %d seeds, want %d",
					ErrBlockCount, dir, s, len(sv), len(d.outs[s]))
			}
			for i, e := range d.outs[s] {
				outs = append(outs, e)
				outSeeds = append(outSeeds, sv[i])
			}
		}
		adj := symbolic.Adjoints(outs, outSeeds)
		for s := InSlot(0); s < NumIn; s++ {
			in := make(symbolic.Vector, len(d.ins[s]))
			for i, v := range d.ins[s] {
				if g, ok := adj[v]; ok {
					in[i] = g
				} else {
					in[i] = symbolic.Const(0)
				}
			}
			sens[dir][s] = in
		}
	}
	return sens, nil
}
