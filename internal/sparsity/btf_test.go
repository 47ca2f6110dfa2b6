package sparsity

import "testing"

// Lower-triangular pattern with a diagonal: node 1 depends on node 0,
// node 2 on node 1.
func chainPattern(t *testing.T) *Pattern {
	t.Helper()
	p, err := FromTriplets(3, 3,
		[]int{0, 1, 1, 2, 2},
		[]int{0, 0, 1, 1, 2})
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	return p
}

func TestFactorChain(t *testing.T) {
	p := chainPattern(t)
	f, err := p.Factor()
	if err != nil {
		t.Fatalf("factor: %v", err)
	}
	if f.NumBlocks() != 3 {
		t.Fatalf("blocks = %d, want 3", f.NumBlocks())
	}
	// Dependencies-first: block order must be 0, 1, 2.
	for bi, block := range f.blocks {
		if len(block) != 1 || block[0] != bi {
			t.Errorf("block %d = %v", bi, block)
		}
	}
}

func TestFactorCycle(t *testing.T) {
	// 0 and 1 depend on each other; 2 depends on 1.
	p, err := FromTriplets(3, 3,
		[]int{0, 1, 0, 1, 2, 2},
		[]int{0, 0, 1, 1, 1, 2})
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	f, err := p.Factor()
	if err != nil {
		t.Fatalf("factor: %v", err)
	}
	if f.NumBlocks() != 2 {
		t.Fatalf("blocks = %d, want 2", f.NumBlocks())
	}
	if len(f.blocks[0]) != 2 {
		t.Errorf("first block = %v, want the 2-cycle", f.blocks[0])
	}
}

func TestFactorNonSquare(t *testing.T) {
	if _, err := Empty(2, 3).Factor(); err == nil {
		t.Error("expected non-square error")
	}
}

func TestSpSolveForward(t *testing.T) {
	p := chainPattern(t)
	f, err := p.Factor()
	if err != nil {
		t.Fatalf("factor: %v", err)
	}

	// A bit entering at node 0 must reach nodes 1 and 2 through the chain.
	x := make([]bool, 3)
	b := []bool{true, false, false}
	if err := p.SpSolve(f, x, b, false); err != nil {
		t.Fatalf("spsolve: %v", err)
	}
	for i, want := range []bool{true, true, true} {
		if x[i] != want {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want)
		}
	}

	// A bit entering at node 2 stays there.
	x = make([]bool, 3)
	b = []bool{false, false, true}
	if err := p.SpSolve(f, x, b, false); err != nil {
		t.Fatalf("spsolve: %v", err)
	}
	for i, want := range []bool{false, false, true} {
		if x[i] != want {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want)
		}
	}
}

func TestSpSolveTranspose(t *testing.T) {
	p := chainPattern(t)
	f, err := p.Factor()
	if err != nil {
		t.Fatalf("factor: %v", err)
	}

	// Transposed, influence flows the other way: a seed at node 2 reaches
	// everything it depends on.
	x := make([]bool, 3)
	b := []bool{false, false, true}
	if err := p.SpSolve(f, x, b, true); err != nil {
		t.Fatalf("spsolve: %v", err)
	}
	for i, want := range []bool{true, true, true} {
		if x[i] != want {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want)
		}
	}
}

func TestSpSolveSaturatesBlock(t *testing.T) {
	// One 2-cycle: a bit anywhere in the block taints the whole block.
	p, err := FromTriplets(2, 2,
		[]int{0, 1, 0, 1},
		[]int{0, 0, 1, 1})
	if err != nil {
		t.Fatalf("pattern: %v", err)
	}
	f, err := p.Factor()
	if err != nil {
		t.Fatalf("factor: %v", err)
	}
	x := make([]bool, 2)
	b := []bool{true, false}
	if err := p.SpSolve(f, x, b, false); err != nil {
		t.Fatalf("spsolve: %v", err)
	}
	if !x[0] || !x[1] {
		t.Errorf("block not saturated: %v", x)
	}
}
