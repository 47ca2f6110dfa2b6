package symbolic

import "fmt"

// Vector is a column of scalar expressions.
type Vector []*Expr

// Sym returns a vector of n fresh variables named prefix_0 .. prefix_{n-1}.
// A single variable keeps the bare prefix.
func Sym(prefix string, n int) Vector {
	v := make(Vector, n)
	if n == 1 {
		v[0] = Var(prefix)
		return v
	}
	for i := range v {
		v[i] = Var(fmt.Sprintf("%s_%d", prefix, i))
	}
	return v
}

// Zeros returns a vector of n zero constants.
func Zeros(n int) Vector {
	v := make(Vector, n)
	for i := range v {
		v[i] = zero
	}
	return v
}

// Concat stacks vectors into one, in order. This is the one-dimensional
// analogue of horizontal concatenation of sensitivity blocks.
func Concat(vs ...Vector) Vector {
	var total int
	for _, v := range vs {
		total += len(v)
	}
	out := make(Vector, 0, total)
	for _, v := range vs {
		out = append(out, v...)
	}
	return out
}

// Project fits v into a block of length n: extra trailing entries are
// dropped, missing entries are padded with structural zeros. It guards
// against a derivative engine returning a block larger or smaller than the
// target slot.
func Project(v Vector, n int) Vector {
	if len(v) == n {
		return v
	}
	out := make(Vector, n)
	for i := 0; i < n; i++ {
		if i < len(v) {
			out[i] = v[i]
		} else {
			out[i] = zero
		}
	}
	return out
}

// Eval evaluates every entry under env into dst. dst may be nil, in which
// case the evaluation is skipped entirely.
func (v Vector) Eval(env Env, dst []float64) {
	if dst == nil {
		return
	}
	memo := make(map[*Expr]float64)
	for i, e := range v {
		dst[i] = e.eval(env, memo)
	}
}

// Simplify rebuilds every entry bottom-up, letting the folding constructors
// collapse constant subtrees. Backs the "expand" option.
func (v Vector) Simplify() Vector {
	memo := make(map[*Expr]*Expr)
	out := make(Vector, len(v))
	for i, e := range v {
		out[i] = simplify(e, memo)
	}
	return out
}

func simplify(e *Expr, memo map[*Expr]*Expr) *Expr {
	if s, ok := memo[e]; ok {
		return s
	}
	var s *Expr
	switch e.op {
	case OpConst, OpVar:
		s = e
	case OpAdd:
		s = Add(simplify(e.args[0], memo), simplify(e.args[1], memo))
	case OpSub:
		s = Sub(simplify(e.args[0], memo), simplify(e.args[1], memo))
	case OpMul:
		s = Mul(simplify(e.args[0], memo), simplify(e.args[1], memo))
	case OpDiv:
		s = Div(simplify(e.args[0], memo), simplify(e.args[1], memo))
	case OpNeg:
		s = Neg(simplify(e.args[0], memo))
	case OpSin:
		s = Sin(simplify(e.args[0], memo))
	case OpCos:
		s = Cos(simplify(e.args[0], memo))
	case OpExp:
		s = Exp(simplify(e.args[0], memo))
	case OpSqrt:
		s = Sqrt(simplify(e.args[0], memo))
	case OpPow:
		s = Pow(simplify(e.args[0], memo), int(e.val))
	}
	memo[e] = s
	return s
}
