package indexer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ic-timon/mbrtree/geom"
)

// SplitStrategy partitions the entries of an overflowing node into two groups.
//
// Split receives the regions of every entry of the node, the overflowing one
// included, and returns the indices of each group. Both groups are non-empty
// and together cover every index exactly once whenever len(regions) >= 2.
// Implementations are stateless and may be shared between trees. Split panics
// if the regions differ in dimension.
type SplitStrategy interface {
	Name() string
	Split(regions []geom.Region) (group1, group2 []int)
}

// StrategyByName returns the strategy registered under name (case-insensitive).
func StrategyByName(name string) (SplitStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear", "":
		return LinearSplit{}, nil
	case "quadratic":
		return QuadraticSplit{}, nil
	case "rstar", "r*", "r-star":
		return RStarSplit{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// StrategyNames lists the names accepted by StrategyByName.
func StrategyNames() []string {
	return []string{"linear", "quadratic", "rstar"}
}

// LinearSplit is Guttman's linear-cost split.
type LinearSplit struct{}

// Name implements SplitStrategy.
func (LinearSplit) Name() string { return "Linear" }

// Split implements SplitStrategy. Seeds are the pair with the greatest normalized
// separation along any axis; the rest are assigned in input order to the group whose
// MBR grows least, ties going to the smaller group. On an axis where every entry has
// zero width the raw separation is used, so point data still picks its farthest pair.
func (LinearSplit) Split(regions []geom.Region) ([]int, []int) {
	if len(regions) < 2 {
		return indices(len(regions)), nil
	}
	s1, s2 := linearSeeds(regions)
	g := newGrouping(regions, s1, s2)
	for i := range regions {
		if i == s1 || i == s2 {
			continue
		}
		c1, c2 := g.cost(0, i), g.cost(1, i)
		if c1 < c2 || (c1 == c2 && len(g.idx[0]) < len(g.idx[1])) {
			g.add(0, i)
		} else {
			g.add(1, i)
		}
	}
	return g.idx[0], g.idx[1]
}

func linearSeeds(regions []geom.Region) (int, int) {
	n := len(regions)
	best := math.Inf(-1)
	s1, s2 := -1, -1
	for d := 0; d < regions[0].Dim(); d++ {
		lowest, highest := 0, 0
		var widest float64
		for i, r := range regions {
			lo, hi := r.Span(d)
			if l, _ := regions[lowest].Span(d); lo < l {
				lowest = i
			}
			if _, h := regions[highest].Span(d); hi > h {
				highest = i
			}
			widest = max(widest, hi-lo)
		}
		if lowest == highest {
			continue
		}
		_, lowSeedHigh := regions[lowest].Span(d)
		highSeedLow, _ := regions[highest].Span(d)
		sep := highSeedLow - lowSeedHigh
		if widest > 0 {
			sep /= widest
		}
		if sep > best {
			best, s1, s2 = sep, lowest, highest
		}
	}
	if best <= 0 || s1 < 0 {
		return 0, n - 1
	}
	return s1, s2
}

// grouping tracks two groups of indices and their MBRs during a split.
type grouping struct {
	regions []geom.Region
	idx     [2][]int
	mbr     [2]geom.Region
}

func newGrouping(regions []geom.Region, seed1, seed2 int) *grouping {
	g := &grouping{regions: regions}
	g.idx[0] = make([]int, 0, len(regions)-1)
	g.idx[1] = make([]int, 0, len(regions)-1)
	g.add(0, seed1)
	g.add(1, seed2)
	return g
}

func (g *grouping) add(group, i int) {
	g.idx[group] = append(g.idx[group], i)
	g.mbr[group] = mustUnion(g.mbr[group], g.regions[i])
}

// cost is the area increase of group's MBR if it also covered entry i.
func (g *grouping) cost(group, i int) float64 {
	return mustUnion(g.mbr[group], g.regions[i]).Area() - g.mbr[group].Area()
}

func mustUnion(a, b geom.Region) geom.Region {
	u, err := geom.Union(a, b)
	if err != nil {
		panic(fmt.Errorf("%w: split input: %v", ErrInvariantViolation, err))
	}
	return u
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
