package integrator

import "errors"

// Domain errors for integrator configuration and evaluation.
var (
	// ErrConfig indicates an invalid configuration: bad grid, non-positive
	// finite-element count, or a scheme/problem mismatch. Detected at
	// setup, before any stepping occurs.
	ErrConfig = errors.New("integrator: invalid configuration")

	// ErrStep indicates a fatal per-step failure, typically rootfinder
	// non-convergence. The evaluation aborts; no retry is attempted.
	ErrStep = errors.New("integrator: step failed")

	// ErrAugment indicates the augmentation builder received malformed
	// derivative blocks from the oracle.
	ErrAugment = errors.New("integrator: augmentation mismatch")
)
