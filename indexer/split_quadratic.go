package indexer

import (
	"math"

	"github.com/ic-timon/mbrtree/geom"
)

// QuadraticSplit is Guttman's quadratic-cost split.
type QuadraticSplit struct {
	// MinFill is the smallest size either group may end up with; 0 means 1.
	// Once a group can only reach MinFill by taking every unassigned entry, it takes them all.
	MinFill int
}

// Name implements SplitStrategy.
func (QuadraticSplit) Name() string { return "Quadratic" }

// Split implements SplitStrategy. Seeds are the pair wasting the most area when
// combined; then the entry with the strongest preference for one group is assigned
// first, repeatedly.
func (q QuadraticSplit) Split(regions []geom.Region) ([]int, []int) {
	n := len(regions)
	if n < 2 {
		return indices(n), nil
	}
	minFill := max(1, q.MinFill)
	if minFill > n/2 {
		minFill = n / 2
	}

	s1, s2 := quadraticSeeds(regions)
	g := newGrouping(regions, s1, s2)
	assigned := make([]bool, n)
	assigned[s1], assigned[s2] = true, true

	for remaining := n - 2; remaining > 0; remaining-- {
		for group := 0; group < 2; group++ {
			if len(g.idx[group])+remaining <= minFill {
				for i := range regions {
					if !assigned[i] {
						g.add(group, i)
					}
				}
				return g.idx[0], g.idx[1]
			}
		}

		next, preferred := -1, 0
		maxDiff := -1.0
		for i := range regions {
			if assigned[i] {
				continue
			}
			c1, c2 := g.cost(0, i), g.cost(1, i)
			if diff := math.Abs(c1 - c2); diff > maxDiff {
				maxDiff, next = diff, i
				preferred = g.prefer(c1, c2)
			}
		}
		g.add(preferred, next)
		assigned[next] = true
	}
	return g.idx[0], g.idx[1]
}

func quadraticSeeds(regions []geom.Region) (int, int) {
	worst := math.Inf(-1)
	s1, s2 := 0, 1
	for i := range regions {
		for j := i + 1; j < len(regions); j++ {
			waste := mustUnion(regions[i], regions[j]).Area() - regions[i].Area() - regions[j].Area()
			if waste > worst {
				worst, s1, s2 = waste, i, j
			}
		}
	}
	return s1, s2
}

// prefer picks the cheaper group; ties go to the smaller MBR, then the group with fewer entries.
func (g *grouping) prefer(c1, c2 float64) int {
	switch {
	case c1 < c2:
		return 0
	case c2 < c1:
		return 1
	}
	a1, a2 := g.mbr[0].Area(), g.mbr[1].Area()
	switch {
	case a1 < a2:
		return 0
	case a2 < a1:
		return 1
	}
	if len(g.idx[1]) < len(g.idx[0]) {
		return 1
	}
	return 0
}
