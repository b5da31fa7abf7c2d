package indexer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/ic-timon/mbrtree/geom"
)

// Stats summarizes the shape of a tree.
type Stats struct {
	Height       int
	Size         int
	Dimension    int
	NodeCapacity int
	MinEntries   int
	Strategy     string
	Nodes        int
	Leaves       int
	Underflowing int // non-root nodes below MinEntries
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("height", s.Height),
		slog.Int("size", s.Size),
		slog.Int("dimension", s.Dimension),
		slog.Int("max_entries", s.NodeCapacity),
		slog.Int("min_entries", s.MinEntries),
		slog.String("strategy", s.Strategy),
		slog.Int("nodes", s.Nodes),
		slog.Int("leaves", s.Leaves),
		slog.Int("underflowing", s.Underflowing),
	)
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "R-Tree Statistics:\n")
	fmt.Fprintf(&b, "  Height: %d\n", s.Height)
	fmt.Fprintf(&b, "  Size: %d\n", s.Size)
	fmt.Fprintf(&b, "  Dimension: %d\n", s.Dimension)
	fmt.Fprintf(&b, "  Max Entries: %d\n", s.NodeCapacity)
	fmt.Fprintf(&b, "  Min Entries: %d\n", s.MinEntries)
	fmt.Fprintf(&b, "  Split Strategy: %s\n", s.Strategy)
	fmt.Fprintf(&b, "  Nodes: %d (%d leaves)\n", s.Nodes, s.Leaves)
	return b.String()
}

// Stats walks the tree and returns its summary.
func (t *Tree) Stats() Stats {
	s := Stats{
		Height:       t.height,
		Size:         t.size,
		Dimension:    t.cfg.Dimension,
		NodeCapacity: t.cfg.NodeCapacity,
		MinEntries:   t.cfg.MinEntries,
		Strategy:     t.ctx.split.Name(),
	}
	t.Walk(func(n Node, depth int) bool {
		s.Nodes++
		if n.IsLeaf() {
			s.Leaves++
		}
		if depth > 0 && n.IsUnderflow(t.cfg.MinEntries) {
			s.Underflowing++
		}
		return true
	})
	return s
}

// Walk visits nodes in pre-order starting at the root (depth 0).
// Returning false from fn skips that node's children.
func (t *Tree) Walk(fn func(n Node, depth int) bool) {
	walkNode(t.root, 0, fn)
}

func walkNode(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	if in, ok := n.(*InternalNode); ok {
		for _, c := range in.Children() {
			walkNode(c, depth+1, fn)
		}
	}
}

// Dump renders the node hierarchy, one line per node and, if withEntries is set,
// one line per payload entry.
func (t *Tree) Dump(withEntries bool) string {
	tree := treeprint.NewWithRoot(nodeLabel(t.root))
	dumpNode(t.root, tree, withEntries)
	return tree.String()
}

func dumpNode(n Node, tree treeprint.Tree, withEntries bool) {
	switch n := n.(type) {
	case *InternalNode:
		for _, c := range n.Children() {
			dumpNode(c, tree.AddBranch(nodeLabel(c)), withEntries)
		}
	case *LeafNode:
		if !withEntries {
			return
		}
		for _, e := range n.entries {
			tree.AddNode(fmt.Sprintf("#%d %s (%d bytes)", e.ID, e.Region, e.Payload().Len()))
		}
	}
}

func nodeLabel(n Node) string {
	kind := "internal"
	if n.IsLeaf() {
		kind = "leaf"
	}
	return fmt.Sprintf("%s %d [%d] %s", kind, n.ID(), n.Len(), n.MBR())
}

// Validate checks the structural invariants of the whole tree and returns every
// violation found, each wrapping ErrInvariantViolation. It returns nil for a sound tree.
func (t *Tree) Validate() error {
	v := &validator{capacity: t.cfg.NodeCapacity, dim: t.cfg.Dimension, leafDepth: -1}
	if t.root.Parent() != nil {
		v.fail("root %d has a parent", t.root.ID())
	}
	v.node(t.root, 1, true)
	if t.height != t.root.Height() {
		v.fail("cached height %d, root reports %d", t.height, t.root.Height())
	}
	if v.leafDepth > 0 && v.leafDepth != t.height {
		v.fail("leaves at depth %d, height %d", v.leafDepth, t.height)
	}
	if v.payloads != t.size {
		v.fail("size %d, found %d payloads", t.size, v.payloads)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	capacity  int
	dim       int
	leafDepth int
	payloads  int
	errs      []error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...)))
}

func (v *validator) node(n Node, depth int, isRoot bool) {
	entries := n.Entries()
	if len(entries) > v.capacity {
		v.fail("node %d holds %d entries, capacity %d", n.ID(), len(entries), v.capacity)
	}
	if len(entries) == 0 && !isRoot {
		v.fail("non-root node %d is empty", n.ID())
	}

	var mbr geom.Region
	for _, e := range entries {
		if err := mbr.Combine(e.Region); err != nil {
			v.fail("node %d entry %d: %v", n.ID(), e.ID, err)
		}
	}
	if !mbr.Equal(n.MBR()) {
		v.fail("node %d mbr %s, entries cover %s", n.ID(), n.MBR(), mbr)
	}

	if n.IsLeaf() {
		if v.leafDepth < 0 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			v.fail("leaf %d at depth %d, others at %d", n.ID(), depth, v.leafDepth)
		}
		for _, e := range entries {
			if e.Payload() == nil {
				v.fail("leaf %d entry %d has no payload", n.ID(), e.ID)
			}
			if e.Region.Dim() != v.dim {
				v.fail("leaf %d entry %d has %d axes, tree has %d", n.ID(), e.ID, e.Region.Dim(), v.dim)
			}
		}
		v.payloads += len(entries)
		return
	}

	for _, e := range entries {
		c := e.Child()
		if c == nil {
			v.fail("internal %d entry %d has no child", n.ID(), e.ID)
			continue
		}
		if c.Parent() != n {
			v.fail("child %d of %d has wrong parent", c.ID(), n.ID())
		}
		if !e.Region.Equal(c.MBR()) {
			v.fail("internal %d entry for child %d is %s, child mbr %s", n.ID(), c.ID(), e.Region, c.MBR())
		}
		v.node(c, depth+1, false)
	}
}
