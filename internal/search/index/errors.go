package index

import "errors"

var (
	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidDimension indicates a non-positive index dimension.
	ErrInvalidDimension = errors.New("invalid index dimension")
)
