package geom

import "errors"

var (
	// ErrDimensionMismatch is returned when two geometries of different dimensionality are combined.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIndexOutOfRange is returned by coordinate accessors given an axis outside [0, Dim()).
	ErrIndexOutOfRange = errors.New("axis index out of range")
	// ErrEmptyRegion is returned where a region with no dimensions is not acceptable.
	ErrEmptyRegion = errors.New("empty region")
	// ErrInvertedRegion is returned when a low bound exceeds its high bound.
	ErrInvertedRegion = errors.New("low bound greater than high bound")
)
