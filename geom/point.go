package geom

import (
	"fmt"
	"slices"
)

// Point is a location in N-dimensional space. The zero value is a 0-dimensional point.
type Point struct {
	coords []float64
}

// NewPoint creates a point from coordinates. The slice is copied.
func NewPoint(coords ...float64) Point {
	return Point{coords: slices.Clone(coords)}
}

// Dim returns the number of dimensions.
func (p Point) Dim() int { return len(p.coords) }

// Coord returns the coordinate on axis d.
func (p Point) Coord(d int) (float64, error) {
	if d < 0 || d >= len(p.coords) {
		return 0, fmt.Errorf("%w: axis %d of %d-d point", ErrIndexOutOfRange, d, len(p.coords))
	}
	return p.coords[d], nil
}

// SetCoord returns a copy of p with axis d set to v.
func (p Point) SetCoord(d int, v float64) (Point, error) {
	if d < 0 || d >= len(p.coords) {
		return p, fmt.Errorf("%w: axis %d of %d-d point", ErrIndexOutOfRange, d, len(p.coords))
	}
	out := p.Coords()
	out[d] = v
	return Point{coords: out}, nil
}

// Coords returns a copy of the coordinates.
func (p Point) Coords() []float64 {
	return slices.Clone(p.coords)
}

// Equal reports whether both points have the same dimension and coordinates.
func (p Point) Equal(o Point) bool {
	return slices.Equal(p.coords, o.coords)
}

func (p Point) String() string {
	return fmt.Sprint(p.coords)
}
