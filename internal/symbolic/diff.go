package symbolic

// Seeds maps variables to their tangent (forward mode) or collects adjoints
// (reverse mode). Variables absent from the map carry a zero seed.
type Seeds map[*Expr]*Expr

// Deriv builds the forward directional derivative of e: the tangent of every
// variable is looked up in seeds, and the chain rule is applied through the
// graph. The result is a new expression.
func Deriv(e *Expr, seeds Seeds) *Expr {
	return deriv(e, seeds, make(map[*Expr]*Expr))
}

func deriv(e *Expr, seeds Seeds, memo map[*Expr]*Expr) *Expr {
	if d, ok := memo[e]; ok {
		return d
	}
	var d *Expr
	a, b := e.args[0], e.args[1]
	switch e.op {
	case OpConst:
		d = zero
	case OpVar:
		if s, ok := seeds[e]; ok {
			d = s
		} else {
			d = zero
		}
	case OpAdd:
		d = Add(deriv(a, seeds, memo), deriv(b, seeds, memo))
	case OpSub:
		d = Sub(deriv(a, seeds, memo), deriv(b, seeds, memo))
	case OpMul:
		d = Add(Mul(deriv(a, seeds, memo), b), Mul(a, deriv(b, seeds, memo)))
	case OpDiv:
		d = Div(Sub(Mul(deriv(a, seeds, memo), b), Mul(a, deriv(b, seeds, memo))), Mul(b, b))
	case OpNeg:
		d = Neg(deriv(a, seeds, memo))
	case OpSin:
		d = Mul(Cos(a), deriv(a, seeds, memo))
	case OpCos:
		d = Neg(Mul(Sin(a), deriv(a, seeds, memo)))
	case OpExp:
		d = Mul(e, deriv(a, seeds, memo))
	case OpSqrt:
		d = Div(deriv(a, seeds, memo), Mul(Const(2), e))
	case OpPow:
		d = Mul(Mul(Const(e.val), Pow(a, int(e.val)-1)), deriv(a, seeds, memo))
	}
	memo[e] = d
	return d
}

// Adjoints runs reverse-mode accumulation: outSeeds pairs each output
// expression with its adjoint seed, and the returned map carries the
// resulting adjoint expression of every variable reached. Variables that are
// never reached are absent (structurally zero sensitivity).
func Adjoints(outputs []*Expr, outSeeds []*Expr) Seeds {
	// Topological order via DFS postorder over the union of output graphs.
	var order []*Expr
	seen := make(map[*Expr]bool)
	var visit func(e *Expr)
	visit = func(e *Expr) {
		if seen[e] {
			return
		}
		seen[e] = true
		for _, a := range e.args {
			if a != nil {
				visit(a)
			}
		}
		order = append(order, e)
	}
	for _, out := range outputs {
		visit(out)
	}

	adj := make(map[*Expr]*Expr)
	acc := func(e *Expr, g *Expr) {
		if g.Zero() {
			return
		}
		if cur, ok := adj[e]; ok {
			adj[e] = Add(cur, g)
		} else {
			adj[e] = g
		}
	}
	for i, out := range outputs {
		acc(out, outSeeds[i])
	}

	for i := len(order) - 1; i >= 0; i-- {
		e := order[i]
		g, ok := adj[e]
		if !ok || g.Zero() {
			continue
		}
		a, b := e.args[0], e.args[1]
		switch e.op {
		case OpAdd:
			acc(a, g)
			acc(b, g)
		case OpSub:
			acc(a, g)
			acc(b, Neg(g))
		case OpMul:
			acc(a, Mul(g, b))
			acc(b, Mul(g, a))
		case OpDiv:
			acc(a, Div(g, b))
			acc(b, Neg(Div(Mul(g, a), Mul(b, b))))
		case OpNeg:
			acc(a, Neg(g))
		case OpSin:
			acc(a, Mul(g, Cos(a)))
		case OpCos:
			acc(a, Neg(Mul(g, Sin(a))))
		case OpExp:
			acc(a, Mul(g, e))
		case OpSqrt:
			acc(a, Div(g, Mul(Const(2), e)))
		case OpPow:
			acc(a, Mul(Mul(g, Const(e.val)), Pow(a, int(e.val)-1)))
		}
	}

	vars := make(Seeds)
	for e, g := range adj {
		if e.op == OpVar {
			vars[e] = g
		}
	}
	return vars
}
