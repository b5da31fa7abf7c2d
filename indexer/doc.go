// Package indexer provides an in-memory R-tree over N-dimensional minimum bounding
// rectangles with pluggable node-splitting heuristics (Linear, Quadratic, R*).
//
// Quick start:
//
//	cfg := indexer.DefaultConfig()
//	cfg.NodeCapacity = 16
//	cfg.Split = indexer.RStarSplit{}
//	tree, err := indexer.NewTree(cfg)
//	mbr, _ := geom.NewRegion(geom.NewPoint(0, 0), geom.NewPoint(1, 1))
//	err = tree.Insert([]byte("payload"), mbr, 42)
//	hits := tree.IntersectionQuery(mbr)
//
// A Tree is not safe for concurrent use. Mutations must be serialized by the
// caller, and readers must not run concurrently with a mutation. Queries alone may
// run concurrently; IntersectionQueryBatch fans a batch out over worker goroutines.
package indexer
