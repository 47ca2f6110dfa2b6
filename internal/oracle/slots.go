package oracle

// InSlot indexes the oracle inputs.
type InSlot int

const (
	T InSlot = iota // time
	X               // differential state
	Z               // algebraic state
	P               // parameter
	RX              // backward differential state
	RZ              // backward algebraic state
	RP              // backward parameter
	NumIn
)

// OutSlot indexes the oracle outputs.
type OutSlot int

const (
	ODE   OutSlot = iota // differential right-hand side
	ALG                  // algebraic residual
	QUAD                 // quadrature rate
	RODE                 // backward differential right-hand side
	RALG                 // backward algebraic residual
	RQUAD                // backward quadrature rate
	NumOut
)

var inNames = [NumIn]string{"t", "x", "z", "p", "rx", "rz", "rp"}
var outNames = [NumOut]string{"ode", "alg", "quad", "rode", "ralg", "rquad"}

func (s InSlot) String() string {
	if s < 0 || s >= NumIn {
		return "?"
	}
	return inNames[s]
}

func (s OutSlot) String() string {
	if s < 0 || s >= NumOut {
		return "?"
	}
	return outNames[s]
}

// Dims carries the nonzero counts of every quantity of a problem.
type Dims struct {
	NX, NZ, NP, NQ     int
	NRX, NRZ, NRP, NRQ int
}

// HasBackward reports whether a backward leg exists at all. A zero backward
// state count means every backward quantity is treated as empty.
func (d Dims) HasBackward() bool { return d.NRX > 0 }
