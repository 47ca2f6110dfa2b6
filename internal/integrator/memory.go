package integrator

// Memory is the mutable scratch of one evaluation. It is allocated once per
// evaluation context, reset at the start of every Eval, and mutated step by
// step. One Memory must never be shared across concurrent evaluations; the
// Integrator itself is immutable and may back any number of Memory
// instances in parallel.
type Memory struct {
	k    int     // current discrete step
	t    float64 // current time
	tbuf []float64

	// Continuous-time state and parameters.
	x, z, p, q     []float64
	rx, rz, rp, rq []float64

	// Previous-step shadow copies.
	xPrev, qPrev   []float64
	rxPrev, rqPrev []float64

	// Discrete-time algebraic variables of the stepping scheme.
	Z, ZPrev   []float64
	RZ, RZPrev []float64

	// Tape of forward snapshots for backward replay. Only allocated when
	// backward states exist.
	xTape [][]float64
	zTape [][]float64

	// Oracle call scratch.
	wX, wQ, wRX, wRQ []float64
	wK, wQK          [][]float64 // stage scratch for multi-stage maps
	wXS              []float64

	Stats Stats
}

// NewMemory allocates an evaluation context sized for this integrator.
func (ig *Integrator) NewMemory() *Memory {
	d := ig.dims
	m := &Memory{
		tbuf:   make([]float64, 1),
		x:      make([]float64, d.NX),
		z:      make([]float64, d.NZ),
		p:      make([]float64, d.NP),
		q:      make([]float64, d.NQ),
		rx:     make([]float64, d.NRX),
		rz:     make([]float64, d.NRZ),
		rp:     make([]float64, d.NRP),
		rq:     make([]float64, d.NRQ),
		xPrev:  make([]float64, d.NX),
		qPrev:  make([]float64, d.NQ),
		rxPrev: make([]float64, d.NRX),
		rqPrev: make([]float64, d.NRQ),
		wX:     make([]float64, d.NX),
		wQ:     make([]float64, d.NQ),
		wRX:    make([]float64, d.NRX),
		wRQ:    make([]float64, d.NRQ),
	}
	ig.scheme.InitMemory(m)
	return m
}
