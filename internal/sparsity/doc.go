// Package sparsity provides Boolean sparsity patterns in compressed-column
// form, a block-triangular factorization of square patterns, and the
// structural solves used for dependency propagation.
package sparsity
