// Package problems is the built-in library of symbolic test systems. Each
// constructor returns a ready-to-integrate description together with sensible
// default inputs.
package problems

import (
	"github.com/san-kum/daekit/internal/oracle"
	"github.com/san-kum/daekit/internal/symbolic"
)

// Problem bundles a symbolic system with default evaluation inputs. Nil
// defaults mean all zeros.
type Problem struct {
	Name        string
	Description string

	System *oracle.Problem

	X0, Z0, P []float64
	RX0, RP   []float64
}

// Decay is scalar linear decay with the rate as a parameter:
//
//	dx/dt = -p*x    dq/dt = x
//
// The backward pair propagates the exact adjoint of the terminal state, so
// the backward quadrature accumulates d x(tf) / dp.
func Decay() *Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 1)
	p := symbolic.Sym("p", 1)
	rx := symbolic.Sym("rx", 1)

	return &Problem{
		Name:        "decay",
		Description: "linear decay with rate sensitivity",
		System: &oracle.Problem{
			T: t, X: x, P: p, RX: rx,
			ODE:   symbolic.Vector{symbolic.Neg(symbolic.Mul(p[0], x[0]))},
			QUAD:  symbolic.Vector{x[0]},
			RODE:  symbolic.Vector{symbolic.Neg(symbolic.Mul(p[0], rx[0]))},
			RQUAD: symbolic.Vector{symbolic.Neg(symbolic.Mul(x[0], rx[0]))},
		},
		X0:  []float64{1},
		P:   []float64{1},
		RX0: []float64{1},
	}
}

// Oscillator is the undamped harmonic oscillator with angular frequency w:
//
//	dx/dt = v    dv/dt = -w^2 * x
//
// The quadrature integrates x^2, a smooth functional of the trajectory.
func Oscillator() *Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 2)
	p := symbolic.Sym("w", 1)

	w2 := symbolic.Mul(p[0], p[0])
	return &Problem{
		Name:        "oscillator",
		Description: "harmonic oscillator",
		System: &oracle.Problem{
			T: t, X: x, P: p,
			ODE: symbolic.Vector{
				x[1],
				symbolic.Neg(symbolic.Mul(w2, x[0])),
			},
			QUAD: symbolic.Vector{symbolic.Mul(x[0], x[0])},
		},
		X0: []float64{1, 0},
		P:  []float64{1},
	}
}

// Pendulum is a semi-explicit DAE form of the damped pendulum: the angular
// acceleration is an algebraic variable pinned by the torque balance.
//
//	d(theta)/dt = omega    d(omega)/dt = z
//	0 = z + (g/l)*sin(theta) + c*omega
func Pendulum() *Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 2) // theta, omega
	z := symbolic.Sym("z", 1)
	p := symbolic.Sym("p", 2) // g/l, damping

	return &Problem{
		Name:        "pendulum",
		Description: "damped pendulum in semi-explicit DAE form",
		System: &oracle.Problem{
			T: t, X: x, Z: z, P: p,
			ODE: symbolic.Vector{x[1], z[0]},
			ALG: symbolic.Vector{
				symbolic.Add(z[0],
					symbolic.Add(
						symbolic.Mul(p[0], symbolic.Sin(x[0])),
						symbolic.Mul(p[1], x[1]))),
			},
		},
		X0: []float64{0.5, 0},
		Z0: []float64{0},
		P:  []float64{9.81, 0.2},
	}
}

// Logistic is saturated growth, a mildly nonlinear scalar benchmark:
//
//	dx/dt = r*x*(1 - x/k)
func Logistic() *Problem {
	t := symbolic.Sym("t", 1)
	x := symbolic.Sym("x", 1)
	p := symbolic.Sym("p", 2) // r, k

	one := symbolic.Const(1)
	return &Problem{
		Name:        "logistic",
		Description: "logistic growth",
		System: &oracle.Problem{
			T: t, X: x, P: p,
			ODE: symbolic.Vector{
				symbolic.Mul(symbolic.Mul(p[0], x[0]),
					symbolic.Sub(one, symbolic.Div(x[0], p[1]))),
			},
		},
		X0: []float64{0.1},
		P:  []float64{2, 1},
	}
}
