package oracle

import (
	"fmt"

	"github.com/san-kum/daekit/internal/symbolic"
)

// Problem is a symbolic DAE description: one variable vector per input slot
// and one right-hand-side vector per output slot.
//
//	dx/dt = ode(t, x, z, p)           0 = alg(t, x, z, p)
//	dq/dt = quad(t, x, z, p)
//
// and, integrated backward from the end of the horizon,
//
//	d(rx)/ds = rode(t, x, z, p, rx, rz, rp)   (s = backward time)
//	       0 = ralg(...)
//	d(rq)/ds = rquad(...)
type Problem struct {
	T  symbolic.Vector
	X  symbolic.Vector
	Z  symbolic.Vector
	P  symbolic.Vector
	RX symbolic.Vector
	RZ symbolic.Vector
	RP symbolic.Vector

	ODE   symbolic.Vector
	ALG   symbolic.Vector
	QUAD  symbolic.Vector
	RODE  symbolic.Vector
	RALG  symbolic.Vector
	RQUAD symbolic.Vector
}

// Dims returns the nonzero counts of the problem.
func (p *Problem) Dims() Dims {
	return Dims{
		NX: len(p.X), NZ: len(p.Z), NP: len(p.P), NQ: len(p.QUAD),
		NRX: len(p.RX), NRZ: len(p.RZ), NRP: len(p.RP), NRQ: len(p.RQUAD),
	}
}

// Validate checks the pairing of variable and equation vectors. These are
// configuration errors: fatal, detected before any stepping occurs.
func (p *Problem) Validate() error {
	if len(p.T) > 1 {
		return fmt.Errorf("%w: time must be scalar, got %d entries", ErrDimensionMismatch, len(p.T))
	}
	pairs := []struct {
		name     string
		vars, eq int
	}{
		{"ode/x", len(p.X), len(p.ODE)},
		{"alg/z", len(p.Z), len(p.ALG)},
		{"rode/rx", len(p.RX), len(p.RODE)},
		{"ralg/rz", len(p.RZ), len(p.RALG)},
	}
	for _, pr := range pairs {
		if pr.vars != pr.eq {
			return fmt.Errorf("%w: %s has %d variables but %d equations",
				ErrDimensionMismatch, pr.name, pr.vars, pr.eq)
		}
	}
	if len(p.RX) == 0 && (len(p.RZ) > 0 || len(p.RP) > 0 || len(p.RQUAD) > 0) {
		return fmt.Errorf("%w: backward quantities without backward states", ErrDimensionMismatch)
	}
	for _, v := range [][]symbolic.Vector{{p.T, p.X, p.Z, p.P, p.RX, p.RZ, p.RP}} {
		for _, vec := range v {
			for i, e := range vec {
				if e == nil || !e.IsVar() {
					return fmt.Errorf("%w: input entry %d is not a variable", ErrDimensionMismatch, i)
				}
			}
		}
	}
	return nil
}

// Simplify returns a copy of the problem with every rhs rebuilt through the
// constant-folding constructors.
func (p *Problem) Simplify() *Problem {
	q := *p
	q.ODE = p.ODE.Simplify()
	q.ALG = p.ALG.Simplify()
	q.QUAD = p.QUAD.Simplify()
	q.RODE = p.RODE.Simplify()
	q.RALG = p.RALG.Simplify()
	q.RQUAD = p.RQUAD.Simplify()
	return &q
}
