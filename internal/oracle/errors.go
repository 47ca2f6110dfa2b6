package oracle

import "errors"

// Domain errors for oracle construction and evaluation.
var (
	// ErrDimensionMismatch indicates an rhs vector whose length disagrees
	// with the variable vector it is paired with.
	ErrDimensionMismatch = errors.New("oracle: dimension mismatch between variables and equations")

	// ErrSlotMismatch indicates a buffer whose length disagrees with the
	// slot it was passed for.
	ErrSlotMismatch = errors.New("oracle: buffer length does not match slot dimension")

	// ErrBlockCount indicates a derivative request that returned the wrong
	// number of direction blocks. Fatal, never truncated or padded.
	ErrBlockCount = errors.New("oracle: directional derivative block count mismatch")
)
