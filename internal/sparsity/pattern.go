package sparsity

import (
	"fmt"
	"sort"
)

// Pattern is a Boolean sparsity pattern stored in compressed-column form.
// It records which (row, column) positions are structurally nonzero; it
// never carries numeric values.
type Pattern struct {
	nrow, ncol int
	colind     []int // length ncol+1, cumulative entry counts
	row        []int // row index per entry, sorted within each column
}

// New builds a pattern from compressed-column data. The row indices must be
// sorted and unique within each column.
func New(nrow, ncol int, colind, row []int) (*Pattern, error) {
	if nrow < 0 || ncol < 0 {
		return nil, fmt.Errorf("sparsity: negative dimension %dx%d", nrow, ncol)
	}
	if len(colind) != ncol+1 {
		return nil, fmt.Errorf("sparsity: colind length %d, want %d", len(colind), ncol+1)
	}
	if colind[0] != 0 || colind[ncol] != len(row) {
		return nil, fmt.Errorf("sparsity: inconsistent colind bounds")
	}
	for j := 0; j < ncol; j++ {
		if colind[j] > colind[j+1] {
			return nil, fmt.Errorf("sparsity: colind not monotone at column %d", j)
		}
		for k := colind[j]; k < colind[j+1]; k++ {
			if row[k] < 0 || row[k] >= nrow {
				return nil, fmt.Errorf("sparsity: row index %d out of range in column %d", row[k], j)
			}
			if k > colind[j] && row[k] <= row[k-1] {
				return nil, fmt.Errorf("sparsity: rows not sorted in column %d", j)
			}
		}
	}
	return &Pattern{nrow: nrow, ncol: ncol, colind: colind, row: row}, nil
}

// FromTriplets builds a pattern from coordinate entries. Duplicates collapse.
func FromTriplets(nrow, ncol int, rows, cols []int) (*Pattern, error) {
	if len(rows) != len(cols) {
		return nil, fmt.Errorf("sparsity: %d rows vs %d cols", len(rows), len(cols))
	}
	bycol := make([][]int, ncol)
	for k := range rows {
		i, j := rows[k], cols[k]
		if i < 0 || i >= nrow || j < 0 || j >= ncol {
			return nil, fmt.Errorf("sparsity: entry (%d,%d) outside %dx%d", i, j, nrow, ncol)
		}
		bycol[j] = append(bycol[j], i)
	}
	colind := make([]int, ncol+1)
	var row []int
	for j := 0; j < ncol; j++ {
		sort.Ints(bycol[j])
		prev := -1
		for _, i := range bycol[j] {
			if i != prev {
				row = append(row, i)
				prev = i
			}
		}
		colind[j+1] = len(row)
	}
	return &Pattern{nrow: nrow, ncol: ncol, colind: colind, row: row}, nil
}

// Empty returns an all-zero pattern.
func Empty(nrow, ncol int) *Pattern {
	return &Pattern{nrow: nrow, ncol: ncol, colind: make([]int, ncol+1)}
}

// Diag returns the n-by-n identity pattern.
func Diag(n int) *Pattern {
	colind := make([]int, n+1)
	row := make([]int, n)
	for j := 0; j < n; j++ {
		colind[j+1] = j + 1
		row[j] = j
	}
	return &Pattern{nrow: n, ncol: n, colind: colind, row: row}
}

func (p *Pattern) NRows() int { return p.nrow }
func (p *Pattern) NCols() int { return p.ncol }
func (p *Pattern) NNZ() int   { return len(p.row) }

// IsDense reports whether every position is structurally nonzero.
func (p *Pattern) IsDense() bool { return len(p.row) == p.nrow*p.ncol }

// Column returns the sorted row indices of column j.
func (p *Pattern) Column(j int) []int {
	return p.row[p.colind[j]:p.colind[j+1]]
}

// Has reports whether position (i, j) is structurally nonzero.
func (p *Pattern) Has(i, j int) bool {
	col := p.Column(j)
	k := sort.SearchInts(col, i)
	return k < len(col) && col[k] == i
}

// Union returns the pattern with an entry wherever either operand has one.
func Union(a, b *Pattern) (*Pattern, error) {
	if a.nrow != b.nrow || a.ncol != b.ncol {
		return nil, fmt.Errorf("sparsity: union of %dx%d and %dx%d", a.nrow, a.ncol, b.nrow, b.ncol)
	}
	colind := make([]int, a.ncol+1)
	var row []int
	for j := 0; j < a.ncol; j++ {
		ca, cb := a.Column(j), b.Column(j)
		ia, ib := 0, 0
		for ia < len(ca) || ib < len(cb) {
			switch {
			case ib == len(cb) || (ia < len(ca) && ca[ia] < cb[ib]):
				row = append(row, ca[ia])
				ia++
			case ia == len(ca) || cb[ib] < ca[ia]:
				row = append(row, cb[ib])
				ib++
			default:
				row = append(row, ca[ia])
				ia++
				ib++
			}
		}
		colind[j+1] = len(row)
	}
	return &Pattern{nrow: a.nrow, ncol: a.ncol, colind: colind, row: row}, nil
}

// Blockcat assembles the 2x2 block pattern [a b; c d]. Row and column
// dimensions of adjacent blocks must agree.
func Blockcat(a, b, c, d *Pattern) (*Pattern, error) {
	if a.nrow != b.nrow || c.nrow != d.nrow || a.ncol != c.ncol || b.ncol != d.ncol {
		return nil, fmt.Errorf("sparsity: blockcat dimension mismatch")
	}
	nrow := a.nrow + c.nrow
	ncol := a.ncol + b.ncol
	colind := make([]int, ncol+1)
	var row []int
	for j := 0; j < a.ncol; j++ {
		row = append(row, a.Column(j)...)
		for _, i := range c.Column(j) {
			row = append(row, i+a.nrow)
		}
		colind[j+1] = len(row)
	}
	for j := 0; j < b.ncol; j++ {
		row = append(row, b.Column(j)...)
		for _, i := range d.Column(j) {
			row = append(row, i+a.nrow)
		}
		colind[a.ncol+j+1] = len(row)
	}
	return &Pattern{nrow: nrow, ncol: ncol, colind: colind, row: row}, nil
}

// Transpose returns the transposed pattern.
func (p *Pattern) Transpose() *Pattern {
	colind := make([]int, p.nrow+1)
	for _, i := range p.row {
		colind[i+1]++
	}
	for i := 0; i < p.nrow; i++ {
		colind[i+1] += colind[i]
	}
	row := make([]int, len(p.row))
	next := make([]int, p.nrow)
	copy(next, colind[:p.nrow])
	for j := 0; j < p.ncol; j++ {
		for _, i := range p.Column(j) {
			row[next[i]] = j
			next[i]++
		}
	}
	return &Pattern{nrow: p.ncol, ncol: p.nrow, colind: colind, row: row}
}
