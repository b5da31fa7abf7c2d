package indexer

import (
	"cmp"
	"math"
	"slices"

	"github.com/ic-timon/mbrtree/geom"
)

// rstarMinFanout is the share of entries each R* group must receive.
const rstarMinFanout = 0.4

// RStarSplit is the topological split of the R*-tree.
type RStarSplit struct{}

// Name implements SplitStrategy.
func (RStarSplit) Name() string { return "RStar" }

// Split implements SplitStrategy. The axis is the one with the smallest summed margin
// over every admissible distribution of both sort orders; along it, the distribution
// with the least overlap (then least total area) wins. Each group receives at least
// floor(0.4*n) entries.
func (RStarSplit) Split(regions []geom.Region) ([]int, []int) {
	n := len(regions)
	if n < 2 {
		return indices(n), nil
	}
	m := max(1, int(math.Floor(rstarMinFanout*float64(n))))
	if n-m < m {
		m = n / 2
	}

	axis, byLow := 0, true
	bestMargin := math.Inf(1)
	for d := 0; d < regions[0].Dim(); d++ {
		lowSum := marginSum(regions, sortedAlong(regions, d, true), m)
		highSum := marginSum(regions, sortedAlong(regions, d, false), m)
		if total := lowSum + highSum; total < bestMargin {
			bestMargin, axis, byLow = total, d, lowSum <= highSum
		}
	}

	order := sortedAlong(regions, axis, byLow)
	pre, suf := prefixMBRs(regions, order), suffixMBRs(regions, order)
	split := m
	bestOverlap, bestArea := math.Inf(1), math.Inf(1)
	for k := m; k <= n-m; k++ {
		overlap := pre[k-1].IntersectingArea(suf[k])
		area := pre[k-1].Area() + suf[k].Area()
		if overlap < bestOverlap || (overlap == bestOverlap && area < bestArea) {
			split, bestOverlap, bestArea = k, overlap, area
		}
	}
	return slices.Clone(order[:split]), slices.Clone(order[split:])
}

// sortedAlong returns entry indices ordered by their low (or high) bound on axis d.
func sortedAlong(regions []geom.Region, d int, byLow bool) []int {
	order := indices(len(regions))
	key := func(i int) float64 {
		lo, hi := regions[i].Span(d)
		if byLow {
			return lo
		}
		return hi
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(key(a), key(b)) })
	return order
}

// marginSum adds up both group margins for every split point k in [m, n-m].
func marginSum(regions []geom.Region, order []int, m int) float64 {
	pre, suf := prefixMBRs(regions, order), suffixMBRs(regions, order)
	var sum float64
	for k := m; k <= len(order)-m; k++ {
		sum += pre[k-1].Margin() + suf[k].Margin()
	}
	return sum
}

// prefixMBRs[i] covers order[0..i].
func prefixMBRs(regions []geom.Region, order []int) []geom.Region {
	out := make([]geom.Region, len(order))
	var acc geom.Region
	for i, idx := range order {
		acc = mustUnion(acc, regions[idx])
		out[i] = acc
	}
	return out
}

// suffixMBRs[i] covers order[i..n-1]; the extra trailing slot is empty.
func suffixMBRs(regions []geom.Region, order []int) []geom.Region {
	out := make([]geom.Region, len(order)+1)
	var acc geom.Region
	for i := len(order) - 1; i >= 0; i-- {
		acc = mustUnion(acc, regions[order[i]])
		out[i] = acc
	}
	return out
}
