package symbolic

import (
	"fmt"
	"math"
)

// Op identifies the operation at an expression node.
type Op int

const (
	OpConst Op = iota
	OpVar
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpSin
	OpCos
	OpExp
	OpSqrt
	OpPow // integer exponent stored in val
)

// Expr is a node in an immutable expression graph. Variables are identified
// by node pointer, so two calls to Var produce distinct variables even with
// the same name.
type Expr struct {
	op   Op
	val  float64
	name string
	args [2]*Expr
}

var zero = &Expr{op: OpConst, val: 0}
var one = &Expr{op: OpConst, val: 1}

// Const returns a constant expression.
func Const(v float64) *Expr {
	switch v {
	case 0:
		return zero
	case 1:
		return one
	}
	return &Expr{op: OpConst, val: v}
}

// Var returns a fresh variable. The name is only used for printing.
func Var(name string) *Expr {
	return &Expr{op: OpVar, name: name}
}

// Zero reports whether e is the constant 0.
func (e *Expr) Zero() bool { return e.op == OpConst && e.val == 0 }

// IsVar reports whether e is a variable node.
func (e *Expr) IsVar() bool { return e.op == OpVar }

// Name returns the variable name, or empty for non-variables.
func (e *Expr) Name() string { return e.name }

// Constructors fold constants so augmented systems stay compact.

func Add(a, b *Expr) *Expr {
	if a.Zero() {
		return b
	}
	if b.Zero() {
		return a
	}
	if a.op == OpConst && b.op == OpConst {
		return Const(a.val + b.val)
	}
	return &Expr{op: OpAdd, args: [2]*Expr{a, b}}
}

func Sub(a, b *Expr) *Expr {
	if b.Zero() {
		return a
	}
	if a.op == OpConst && b.op == OpConst {
		return Const(a.val - b.val)
	}
	if a.Zero() {
		return Neg(b)
	}
	return &Expr{op: OpSub, args: [2]*Expr{a, b}}
}

func Mul(a, b *Expr) *Expr {
	if a.Zero() || b.Zero() {
		return zero
	}
	if a.op == OpConst && a.val == 1 {
		return b
	}
	if b.op == OpConst && b.val == 1 {
		return a
	}
	if a.op == OpConst && b.op == OpConst {
		return Const(a.val * b.val)
	}
	return &Expr{op: OpMul, args: [2]*Expr{a, b}}
}

func Div(a, b *Expr) *Expr {
	if a.Zero() {
		return zero
	}
	if b.op == OpConst && b.val == 1 {
		return a
	}
	if a.op == OpConst && b.op == OpConst && b.val != 0 {
		return Const(a.val / b.val)
	}
	return &Expr{op: OpDiv, args: [2]*Expr{a, b}}
}

func Neg(a *Expr) *Expr {
	if a.op == OpConst {
		return Const(-a.val)
	}
	return &Expr{op: OpNeg, args: [2]*Expr{a}}
}

func Sin(a *Expr) *Expr {
	if a.op == OpConst {
		return Const(math.Sin(a.val))
	}
	return &Expr{op: OpSin, args: [2]*Expr{a}}
}

func Cos(a *Expr) *Expr {
	if a.op == OpConst {
		return Const(math.Cos(a.val))
	}
	return &Expr{op: OpCos, args: [2]*Expr{a}}
}

func Exp(a *Expr) *Expr {
	if a.op == OpConst {
		return Const(math.Exp(a.val))
	}
	return &Expr{op: OpExp, args: [2]*Expr{a}}
}

func Sqrt(a *Expr) *Expr {
	if a.op == OpConst {
		return Const(math.Sqrt(a.val))
	}
	return &Expr{op: OpSqrt, args: [2]*Expr{a}}
}

// Pow raises a to an integer power.
func Pow(a *Expr, n int) *Expr {
	if n == 0 {
		return one
	}
	if n == 1 {
		return a
	}
	if a.op == OpConst {
		return Const(math.Pow(a.val, float64(n)))
	}
	return &Expr{op: OpPow, val: float64(n), args: [2]*Expr{a}}
}

// Env assigns numeric values to variables.
type Env map[*Expr]float64

// Eval evaluates the expression under env. Unbound variables evaluate to
// zero, matching the convention that absent input slots are zero-filled.
func (e *Expr) Eval(env Env) float64 {
	return e.eval(env, make(map[*Expr]float64))
}

func (e *Expr) eval(env Env, memo map[*Expr]float64) float64 {
	if v, ok := memo[e]; ok {
		return v
	}
	var v float64
	switch e.op {
	case OpConst:
		v = e.val
	case OpVar:
		v = env[e]
	case OpAdd:
		v = e.args[0].eval(env, memo) + e.args[1].eval(env, memo)
	case OpSub:
		v = e.args[0].eval(env, memo) - e.args[1].eval(env, memo)
	case OpMul:
		v = e.args[0].eval(env, memo) * e.args[1].eval(env, memo)
	case OpDiv:
		v = e.args[0].eval(env, memo) / e.args[1].eval(env, memo)
	case OpNeg:
		v = -e.args[0].eval(env, memo)
	case OpSin:
		v = math.Sin(e.args[0].eval(env, memo))
	case OpCos:
		v = math.Cos(e.args[0].eval(env, memo))
	case OpExp:
		v = math.Exp(e.args[0].eval(env, memo))
	case OpSqrt:
		v = math.Sqrt(e.args[0].eval(env, memo))
	case OpPow:
		v = math.Pow(e.args[0].eval(env, memo), e.val)
	default:
		panic(fmt.Sprintf("symbolic: unknown op %d", e.op))
	}
	memo[e] = v
	return v
}

// Vars collects the variables the expression structurally depends on.
func (e *Expr) Vars() map[*Expr]bool {
	set := make(map[*Expr]bool)
	e.vars(set, make(map[*Expr]bool))
	return set
}

func (e *Expr) vars(set, seen map[*Expr]bool) {
	if seen[e] {
		return
	}
	seen[e] = true
	if e.op == OpVar {
		set[e] = true
		return
	}
	for _, a := range e.args {
		if a != nil {
			a.vars(set, seen)
		}
	}
}

// DependsOn reports whether e structurally depends on variable v.
func (e *Expr) DependsOn(v *Expr) bool {
	return e.Vars()[v]
}

func (e *Expr) String() string {
	switch e.op {
	case OpConst:
		return fmt.Sprintf("%g", e.val)
	case OpVar:
		return e.name
	case OpAdd:
		return "(" + e.args[0].String() + "+" + e.args[1].String() + ")"
	case OpSub:
		return "(" + e.args[0].String() + "-" + e.args[1].String() + ")"
	case OpMul:
		return "(" + e.args[0].String() + "*" + e.args[1].String() + ")"
	case OpDiv:
		return "(" + e.args[0].String() + "/" + e.args[1].String() + ")"
	case OpNeg:
		return "(-" + e.args[0].String() + ")"
	case OpSin:
		return "sin(" + e.args[0].String() + ")"
	case OpCos:
		return "cos(" + e.args[0].String() + ")"
	case OpExp:
		return "exp(" + e.args[0].String() + ")"
	case OpSqrt:
		return "sqrt(" + e.args[0].String() + ")"
	case OpPow:
		return fmt.Sprintf("%s^%g", e.args[0].String(), e.val)
	}
	return "?"
}
