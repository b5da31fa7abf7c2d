package indexer

import "github.com/ic-timon/mbrtree/geom"

// IntersectionQuery returns every stored entry whose region intersects query,
// touching boundaries included. The result is nil for an empty query or one of
// a different dimension.
func (t *Tree) IntersectionQuery(query geom.Region) []Entry {
	queriesTotal.WithLabelValues("intersection").Inc()
	return t.root.appendMatches(query, nil)
}

// Search is IntersectionQuery.
func (t *Tree) Search(query geom.Region) []Entry {
	return t.IntersectionQuery(query)
}

// ContainmentQuery returns the entries whose region lies entirely inside query.
func (t *Tree) ContainmentQuery(query geom.Region) []Entry {
	queriesTotal.WithLabelValues("containment").Inc()
	return filterEntries(t.root.appendMatches(query, nil), func(e Entry) bool {
		return query.ContainsRegion(e.Region)
	})
}

// PointQuery returns the entries whose region contains p.
func (t *Tree) PointQuery(p geom.Point) []Entry {
	queriesTotal.WithLabelValues("point").Inc()
	return filterEntries(t.root.appendMatches(geom.RegionFromPoint(p), nil), func(e Entry) bool {
		return e.Region.ContainsPoint(p)
	})
}

// filterEntries 原地过滤，复用 candidates 的底层数组
func filterEntries(candidates []Entry, keep func(Entry) bool) []Entry {
	out := candidates[:0]
	for _, e := range candidates {
		if keep(e) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
