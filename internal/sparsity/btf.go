package sparsity

import "fmt"

// BTF is a block-triangular factorization of a square pattern: the strongly
// connected components of the dependency graph, listed so that every block
// only depends on blocks at lower positions. It supports the structural
// solves used during Boolean dependency propagation.
type BTF struct {
	blocks [][]int
	deps   [][]int // deps[i] = columns j with a structural entry at (i, j)
}

// Factor computes the block-triangular form of a square pattern. Node i is
// taken to depend on node j whenever position (i, j) is nonzero.
func (p *Pattern) Factor() (*BTF, error) {
	if p.nrow != p.ncol {
		return nil, fmt.Errorf("sparsity: factor of non-square %dx%d pattern", p.nrow, p.ncol)
	}
	n := p.nrow
	deps := make([][]int, n)
	for j := 0; j < n; j++ {
		for _, i := range p.Column(j) {
			deps[i] = append(deps[i], j)
		}
	}

	// Tarjan emits components dependencies-first, which is exactly the
	// order the forward structural solve needs.
	f := &BTF{deps: deps}
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	counter := 0

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range deps[v] {
			if index[w] < 0 {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}
		if lowlink[v] == index[v] {
			var block []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				block = append(block, w)
				if w == v {
					break
				}
			}
			f.blocks = append(f.blocks, block)
		}
	}
	for v := 0; v < n; v++ {
		if index[v] < 0 {
			strongconnect(v)
		}
	}
	return f, nil
}

// NumBlocks returns the number of diagonal blocks.
func (f *BTF) NumBlocks() int { return len(f.blocks) }

// SpSolve performs the structural solve of A*x = b (or A'*x = b when
// transpose is set) used for Boolean dependency propagation: every entry of
// x receives the union of the dependency bits it can reach through the
// factored pattern, saturating interdependencies within each strongly
// connected block. x and b must have length n; b is read only.
func (p *Pattern) SpSolve(f *BTF, x, b []bool, transpose bool) error {
	n := p.nrow
	if p.nrow != p.ncol {
		return fmt.Errorf("sparsity: spsolve of non-square %dx%d pattern", p.nrow, p.ncol)
	}
	if len(x) != n || len(b) != n {
		return fmt.Errorf("sparsity: spsolve vectors %d/%d, want %d", len(x), len(b), n)
	}

	deps := f.deps
	if transpose {
		// Reverse every dependency edge; blocks are then processed in
		// reverse order so dependencies still resolve first.
		rdeps := make([][]int, n)
		for i, ds := range f.deps {
			for _, j := range ds {
				rdeps[j] = append(rdeps[j], i)
			}
		}
		deps = rdeps
	}

	inBlock := make([]int, n)
	for bi, block := range f.blocks {
		for _, i := range block {
			inBlock[i] = bi
		}
	}

	for bi := 0; bi < len(f.blocks); bi++ {
		block := f.blocks[bi]
		if transpose {
			block = f.blocks[len(f.blocks)-1-bi]
		}
		// Within one strongly connected block every node reaches every
		// other, so the block saturates to a single union of bits.
		acc := false
		for _, i := range block {
			if b[i] {
				acc = true
			}
			for _, j := range deps[i] {
				if inBlock[j] != inBlock[i] && x[j] {
					acc = true
				}
			}
		}
		for _, i := range block {
			x[i] = x[i] || acc || b[i]
		}
	}
	return nil
}
