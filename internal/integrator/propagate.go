package integrator

import (
	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/sparsity"
)

// BoolInput and BoolOutput mirror Input/Output with Boolean taint bits.
type BoolInput struct {
	X0, P, Z0, RX0, RP, RZ0 []bool
}

type BoolOutput struct {
	XF, QF, ZF, RXF, RQF, RZF []bool
}

// spJacDAE builds the structural Jacobian of the combined forward system:
// ODE and algebraic rows over differential and algebraic columns, with a
// diagonal added to the state block to capture self-dependency.
func spJacDAE(dae *oracle.DAE) (*sparsity.Pattern, error) {
	d := dae.Dims()
	jx, err := sparsity.Union(dae.JacSparsity(oracle.X, oracle.ODE), sparsity.Diag(d.NX))
	if err != nil {
		return nil, err
	}
	if d.NZ == 0 {
		return jx, nil
	}
	return sparsity.Blockcat(jx,
		dae.JacSparsity(oracle.Z, oracle.ODE),
		dae.JacSparsity(oracle.X, oracle.ALG),
		dae.JacSparsity(oracle.Z, oracle.ALG))
}

// spJacRDAE is the structurally analogous pattern for the backward system.
func spJacRDAE(dae *oracle.DAE) (*sparsity.Pattern, error) {
	d := dae.Dims()
	jx, err := sparsity.Union(dae.JacSparsity(oracle.RX, oracle.RODE), sparsity.Diag(d.NRX))
	if err != nil {
		return nil, err
	}
	if d.NRZ == 0 {
		return jx, nil
	}
	return sparsity.Blockcat(jx,
		dae.JacSparsity(oracle.RZ, oracle.RODE),
		dae.JacSparsity(oracle.RX, oracle.RALG),
		dae.JacSparsity(oracle.RZ, oracle.RALG))
}

// SpForward propagates Boolean dependency bits from integrator inputs to
// integrator outputs. One oracle evaluation yields tentative bits for the
// combined system, the direct dependency of the initial state is ORed in,
// and the factored pattern then saturates interdependencies through a
// structural solve before quadrature and backward blocks are reached.
func (ig *Integrator) SpForward(arg *BoolInput, res *BoolOutput) error {
	d := ig.dims

	xz := make([]bool, d.NX+d.NZ)
	tmpX, tmpZ := xz[:d.NX], xz[d.NX:]

	var a oracle.BoolArg
	var r oracle.BoolRes
	a[oracle.X] = arg.X0
	a[oracle.P] = arg.P
	r[oracle.ODE] = tmpX
	r[oracle.ALG] = tmpZ
	ig.dae.SpForward(&a, &r)
	if arg.X0 != nil {
		for i := 0; i < d.NX; i++ {
			tmpX[i] = tmpX[i] || arg.X0[i]
		}
	}

	// Resolve interdependencies among simultaneously defined quantities.
	b := make([]bool, len(xz))
	copy(b, xz)
	for i := range xz {
		xz[i] = false
	}
	if err := ig.jacDAE.SpSolve(ig.btfDAE, xz, b, false); err != nil {
		return err
	}

	if res.XF != nil {
		copy(res.XF, tmpX)
	}
	if res.ZF != nil {
		copy(res.ZF, tmpZ)
	}

	if d.NQ > 0 && res.QF != nil {
		a[oracle.X] = tmpX
		a[oracle.Z] = tmpZ
		r[oracle.ODE] = nil
		r[oracle.ALG] = nil
		r[oracle.QUAD] = res.QF
		ig.dae.SpForward(&a, &r)
	}

	if d.NRX > 0 {
		rxz := make([]bool, d.NRX+d.NRZ)
		tmpRx, tmpRz := rxz[:d.NRX], rxz[d.NRX:]

		a = oracle.BoolArg{}
		a[oracle.X] = tmpX
		a[oracle.Z] = tmpZ
		a[oracle.P] = arg.P
		a[oracle.RX] = arg.RX0
		a[oracle.RP] = arg.RP
		r = oracle.BoolRes{}
		r[oracle.RODE] = tmpRx
		r[oracle.RALG] = tmpRz
		ig.dae.SpForward(&a, &r)
		if arg.RX0 != nil {
			for i := 0; i < d.NRX; i++ {
				tmpRx[i] = tmpRx[i] || arg.RX0[i]
			}
		}

		rb := make([]bool, len(rxz))
		copy(rb, rxz)
		for i := range rxz {
			rxz[i] = false
		}
		if err := ig.jacRDAE.SpSolve(ig.btfRDAE, rxz, rb, false); err != nil {
			return err
		}

		if res.RXF != nil {
			copy(res.RXF, tmpRx)
		}
		if res.RZF != nil {
			copy(res.RZF, tmpRz)
		}

		if d.NRQ > 0 && res.RQF != nil {
			a[oracle.RX] = tmpRx
			a[oracle.RZ] = tmpRz
			r[oracle.RODE] = nil
			r[oracle.RALG] = nil
			r[oracle.RQUAD] = res.RQF
			ig.dae.SpForward(&a, &r)
		}
	}
	return nil
}

// SpReverse propagates Boolean seeds at the integrator outputs back onto the
// inputs. Output seeds are consumed (zeroed); inputs accumulate by OR. The
// structural solve runs transposed, and the guessed initial algebraic values
// deliberately carry no dependency edge.
func (ig *Integrator) SpReverse(arg *BoolInput, res *BoolOutput) error {
	d := ig.dims

	xz := make([]bool, d.NX+d.NZ)
	tmpX, tmpZ := xz[:d.NX], xz[d.NX:]
	if res.XF != nil {
		copy(tmpX, res.XF)
		clearBits(res.XF)
	}
	if res.ZF != nil {
		copy(tmpZ, res.ZF)
		clearBits(res.ZF)
	}

	if d.NRX > 0 {
		rxz := make([]bool, d.NRX+d.NRZ)
		tmpRx, tmpRz := rxz[:d.NRX], rxz[d.NRX:]
		if res.RXF != nil {
			copy(tmpRx, res.RXF)
			clearBits(res.RXF)
		}
		if res.RZF != nil {
			copy(tmpRz, res.RZF)
			clearBits(res.RZF)
		}

		// Dependencies entering through the backward quadratures.
		a := oracle.BoolArg{}
		a[oracle.X] = tmpX
		a[oracle.Z] = tmpZ
		a[oracle.P] = arg.P
		a[oracle.RX] = tmpRx
		a[oracle.RZ] = tmpRz
		a[oracle.RP] = arg.RP
		r := oracle.BoolRes{}
		r[oracle.RQUAD] = res.RQF
		ig.dae.SpReverse(&a, &r)

		// Saturate interdependencies, transposed.
		w := make([]bool, len(rxz))
		if err := ig.jacRDAE.SpSolve(ig.btfRDAE, w, rxz, true); err != nil {
			return err
		}
		copy(rxz, w)

		// Direct dependency rx0 -> rxf.
		if arg.RX0 != nil {
			for i := 0; i < d.NRX; i++ {
				arg.RX0[i] = arg.RX0[i] || tmpRx[i]
			}
		}

		// Indirect dependency through the backward dynamics. The initial
		// backward algebraic value is a guess: no dependency edge.
		a2 := oracle.BoolArg{}
		a2[oracle.X] = tmpX
		a2[oracle.Z] = tmpZ
		a2[oracle.P] = arg.P
		a2[oracle.RX] = arg.RX0
		a2[oracle.RP] = arg.RP
		r2 := oracle.BoolRes{}
		r2[oracle.RODE] = tmpRx
		r2[oracle.RALG] = tmpRz
		ig.dae.SpReverse(&a2, &r2)
	}

	// Dependencies entering through the forward quadratures.
	if d.NQ > 0 && res.QF != nil {
		a3 := oracle.BoolArg{}
		a3[oracle.X] = tmpX
		a3[oracle.Z] = tmpZ
		a3[oracle.P] = arg.P
		r3 := oracle.BoolRes{}
		r3[oracle.QUAD] = res.QF
		ig.dae.SpReverse(&a3, &r3)
	}

	w := make([]bool, len(xz))
	if err := ig.jacDAE.SpSolve(ig.btfDAE, w, xz, true); err != nil {
		return err
	}
	copy(xz, w)

	// Direct dependency x0 -> xf.
	if arg.X0 != nil {
		for i := 0; i < d.NX; i++ {
			arg.X0[i] = arg.X0[i] || tmpX[i]
		}
	}

	// Indirect dependency through the forward dynamics; z0 is a guess.
	a4 := oracle.BoolArg{}
	a4[oracle.X] = arg.X0
	a4[oracle.P] = arg.P
	r4 := oracle.BoolRes{}
	r4[oracle.ODE] = tmpX
	r4[oracle.ALG] = tmpZ
	ig.dae.SpReverse(&a4, &r4)
	return nil
}

func clearBits(b []bool) {
	for i := range b {
		b[i] = false
	}
}
