// Package geom provides the axis-aligned bounding box (Region) and Point types used by the index.
package geom

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Region is an axis-aligned minimum bounding rectangle over N dimensions.
//
// The zero value is the empty region: it has no dimensions, zero area and
// neither contains nor intersects anything. Combine is the only mutating
// method and it never writes into slices shared with another Region, so
// plain struct copies are safe to hand out.
type Region struct {
	low  []float64
	high []float64
}

// NewRegion creates the region spanned by two corner points.
func NewRegion(low, high Point) (Region, error) {
	return NewRegionFromCoords(low.coords, high.coords)
}

// NewRegionFromCoords creates a region from raw low/high coordinate arrays. Both slices are copied.
func NewRegionFromCoords(low, high []float64) (Region, error) {
	if len(low) != len(high) {
		return Region{}, fmt.Errorf("%w: low is %d-d, high is %d-d", ErrDimensionMismatch, len(low), len(high))
	}
	for d := range low {
		if low[d] > high[d] {
			return Region{}, fmt.Errorf("%w: axis %d [%g, %g]", ErrInvertedRegion, d, low[d], high[d])
		}
	}
	return Region{low: slices.Clone(low), high: slices.Clone(high)}, nil
}

// RegionFromPoint creates the degenerate region covering exactly p.
func RegionFromPoint(p Point) Region {
	return Region{low: slices.Clone(p.coords), high: slices.Clone(p.coords)}
}

// Dim returns the number of dimensions, 0 for the empty region.
func (r Region) Dim() int { return len(r.low) }

// IsEmpty reports whether the region has no dimensions set.
func (r Region) IsEmpty() bool { return len(r.low) == 0 }

// Low returns the lower bound on axis d.
func (r Region) Low(d int) (float64, error) {
	if d < 0 || d >= len(r.low) {
		return 0, fmt.Errorf("%w: axis %d of %d-d region", ErrIndexOutOfRange, d, len(r.low))
	}
	return r.low[d], nil
}

// High returns the upper bound on axis d.
func (r Region) High(d int) (float64, error) {
	if d < 0 || d >= len(r.high) {
		return 0, fmt.Errorf("%w: axis %d of %d-d region", ErrIndexOutOfRange, d, len(r.high))
	}
	return r.high[d], nil
}

// Span returns both bounds on axis d. It panics if d is out of range, like slice indexing;
// use Low/High when the axis is not known to be valid.
func (r Region) Span(d int) (lo, hi float64) {
	return r.low[d], r.high[d]
}

// LowPoint returns the lower corner.
func (r Region) LowPoint() Point { return NewPoint(r.low...) }

// HighPoint returns the upper corner.
func (r Region) HighPoint() Point { return NewPoint(r.high...) }

// Area returns the product of the extents, 0 for the empty region.
func (r Region) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	area := 1.0
	for d := range r.low {
		area *= r.high[d] - r.low[d]
	}
	return area
}

// Margin returns twice the sum of the extents.
func (r Region) Margin() float64 {
	var m float64
	for d := range r.low {
		m += r.high[d] - r.low[d]
	}
	return 2 * m
}

// ContainsPoint reports whether p lies inside r, boundary included. A dimension mismatch yields false.
func (r Region) ContainsPoint(p Point) bool {
	if r.IsEmpty() || len(r.low) != len(p.coords) {
		return false
	}
	for d, c := range p.coords {
		if c < r.low[d] || c > r.high[d] {
			return false
		}
	}
	return true
}

// ContainsRegion reports whether o lies entirely inside r. A dimension mismatch yields false.
func (r Region) ContainsRegion(o Region) bool {
	if r.IsEmpty() || len(r.low) != len(o.low) {
		return false
	}
	for d := range r.low {
		if o.low[d] < r.low[d] || o.high[d] > r.high[d] {
			return false
		}
	}
	return true
}

// Intersects reports whether r and o share at least one point. A dimension mismatch yields false.
func (r Region) Intersects(o Region) bool {
	if r.IsEmpty() || len(r.low) != len(o.low) {
		return false
	}
	for d := range r.low {
		if r.low[d] > o.high[d] || r.high[d] < o.low[d] {
			return false
		}
	}
	return true
}

// IntersectingArea returns the area of r ∩ o, 0 when they do not intersect.
func (r Region) IntersectingArea(o Region) float64 {
	if !r.Intersects(o) {
		return 0
	}
	area := 1.0
	for d := range r.low {
		area *= math.Min(r.high[d], o.high[d]) - math.Max(r.low[d], o.low[d])
	}
	return area
}

// Combine enlarges r in place to also cover o. An empty r becomes a copy of o;
// an empty o leaves r unchanged.
func (r *Region) Combine(o Region) error {
	if o.IsEmpty() {
		return nil
	}
	if r.IsEmpty() {
		r.low, r.high = slices.Clone(o.low), slices.Clone(o.high)
		return nil
	}
	if len(r.low) != len(o.low) {
		return fmt.Errorf("%w: combining %d-d with %d-d", ErrDimensionMismatch, len(r.low), len(o.low))
	}
	low, high := make([]float64, len(r.low)), make([]float64, len(r.high))
	for d := range r.low {
		low[d] = math.Min(r.low[d], o.low[d])
		high[d] = math.Max(r.high[d], o.high[d])
	}
	r.low, r.high = low, high
	return nil
}

// Union returns the smallest region covering a and b.
func Union(a, b Region) (Region, error) {
	out := a
	if err := out.Combine(b); err != nil {
		return Region{}, err
	}
	return out, nil
}

// Enlargement returns how much area r would gain by also covering o.
func (r Region) Enlargement(o Region) (float64, error) {
	u, err := Union(r, o)
	if err != nil {
		return 0, err
	}
	return u.Area() - r.Area(), nil
}

// Center returns the midpoint on every axis.
func (r Region) Center() Point {
	c := make([]float64, len(r.low))
	for d := range r.low {
		c[d] = (r.low[d] + r.high[d]) / 2
	}
	return Point{coords: c}
}

// MinDistance returns the Euclidean distance between the nearest faces of r and o, 0 when they intersect.
func (r Region) MinDistance(o Region) (float64, error) {
	if len(r.low) != len(o.low) {
		return 0, fmt.Errorf("%w: distance between %d-d and %d-d", ErrDimensionMismatch, len(r.low), len(o.low))
	}
	if r.Intersects(o) {
		return 0, nil
	}
	var sum float64
	for d := range r.low {
		var gap float64
		switch {
		case r.high[d] < o.low[d]:
			gap = o.low[d] - r.high[d]
		case r.low[d] > o.high[d]:
			gap = r.low[d] - o.high[d]
		}
		sum += gap * gap
	}
	return math.Sqrt(sum), nil
}

// Equal reports whether both regions have identical bounds.
func (r Region) Equal(o Region) bool {
	return slices.Equal(r.low, o.low) && slices.Equal(r.high, o.high)
}

func (r Region) String() string {
	if r.IsEmpty() {
		return "[]"
	}
	var b strings.Builder
	for d := range r.low {
		if d > 0 {
			b.WriteString(" x ")
		}
		fmt.Fprintf(&b, "[%g, %g]", r.low[d], r.high[d])
	}
	return b.String()
}
