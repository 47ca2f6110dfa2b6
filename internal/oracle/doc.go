// Package oracle turns a symbolic DAE description into the callable form the
// integrator consumes: slot-indexed numeric evaluation, structural Jacobian
// queries, Boolean dependency propagation and symbolic directional
// derivatives.
//
// The inputs are (t, x, z, p) for the forward problem and (rx, rz, rp) for
// the backward problem; the outputs pair each of them with a right-hand side
// or residual.
package oracle
