// Package symbolic implements a small immutable expression graph with
// numeric evaluation and forward and reverse mode differentiation. Variables
// are identified by node pointer; constructors fold constants so derived
// expressions stay compact.
package symbolic
