package indexer

import (
	"fmt"

	"github.com/ic-timon/mbrtree/geom"
)

// Tree is an N-dimensional R-tree over opaque payloads.
//
// A Tree is not safe for concurrent use; callers serialize access themselves.
type Tree struct {
	cfg    Config
	ctx    *treeContext
	root   Node
	size   int
	height int
	nextID uint64
}

// NewTree creates an empty tree. Uses default config if cfg is nil.
func NewTree(cfg *Config) (*Tree, error) {
	c := *cfg.OrDefault()
	if err := c.validate(); err != nil {
		return nil, err
	}
	ctx := &treeContext{
		capacity: c.NodeCapacity,
		split:    c.Split,
		logger:   c.logger(),
	}
	return &Tree{
		cfg:    c,
		ctx:    ctx,
		root:   newLeafNode(ctx),
		height: 1,
		nextID: 1,
	}, nil
}

// New creates an empty tree with the given dimension and node capacity.
// A nil strategy selects LinearSplit.
func New(dimension, nodeCapacity int, strategy SplitStrategy) (*Tree, error) {
	if dimension < 1 || nodeCapacity < 2 {
		return nil, fmt.Errorf("%w: dimension %d, node capacity %d", ErrInvalidConfig, dimension, nodeCapacity)
	}
	return NewTree(&Config{Dimension: dimension, NodeCapacity: nodeCapacity, Split: strategy})
}

// Config returns a copy of the tree configuration.
func (t *Tree) Config() Config { return t.cfg }

// Root returns the root node. It is a leaf while the tree fits in one node.
// Nodes are for reading; mutate through Tree.Insert and Tree.Remove.
func (t *Tree) Root() Node { return t.root }

// Height is the number of levels, 1 when the root is a leaf.
func (t *Tree) Height() int { return t.height }

// Size is the number of stored payloads.
func (t *Tree) Size() int { return t.size }

// NodeCapacity is the maximum number of entries a node holds before it splits.
func (t *Tree) NodeCapacity() int { return t.cfg.NodeCapacity }

// Dimension is the number of axes every stored region must have.
func (t *Tree) Dimension() int { return t.cfg.Dimension }

// NextID returns the identifier InsertAuto would assign next.
func (t *Tree) NextID() uint64 { return t.nextID }

// SplitStrategy returns the strategy used for future splits.
func (t *Tree) SplitStrategy() SplitStrategy { return t.ctx.split }

// SetSplitStrategy replaces the strategy for all future splits. Existing nodes are
// not reorganized. A nil strategy selects LinearSplit.
func (t *Tree) SetSplitStrategy(s SplitStrategy) {
	if s == nil {
		s = LinearSplit{}
	}
	t.ctx.split = s
	t.cfg.Split = s
	t.ctx.logger.Debug("split strategy changed", "strategy", s.Name())
}

// Insert stores a copy of data under mbr with the caller-chosen id.
// Uniqueness of id is not checked; with duplicates, Remove takes the first match.
func (t *Tree) Insert(data []byte, mbr geom.Region, id uint64) error {
	if err := t.checkRegion(mbr); err != nil {
		return fmt.Errorf("insert %d: %w", id, err)
	}
	t.root.insert(newPayloadEntry(mbr, id, data))
	if t.root.shouldSplit() {
		if sibling := t.root.split(); sibling != nil {
			t.growRoot(sibling)
		}
	}
	t.size++
	if id >= t.nextID {
		t.nextID = id + 1
	}
	insertsTotal.Inc()
	return nil
}

// InsertAuto stores data under mbr with the next free identifier and returns it.
func (t *Tree) InsertAuto(data []byte, mbr geom.Region) (uint64, error) {
	id := t.nextID
	if err := t.Insert(data, mbr, id); err != nil {
		return 0, err
	}
	return id, nil
}

// Remove deletes the entry with the given id, looking only where mbr overlaps.
// It reports false if no such entry was found. Underfull nodes are not merged;
// an internal root left with a single child is replaced by that child.
func (t *Tree) Remove(id uint64, mbr geom.Region) bool {
	if t.checkRegion(mbr) != nil || !t.root.remove(id, mbr) {
		removesTotal.WithLabelValues("miss").Inc()
		return false
	}
	t.size--
	t.condenseRoot()
	removesTotal.WithLabelValues("hit").Inc()
	return true
}

func (t *Tree) checkRegion(mbr geom.Region) error {
	if mbr.IsEmpty() {
		return geom.ErrEmptyRegion
	}
	if mbr.Dim() != t.cfg.Dimension {
		return fmt.Errorf("%w: region has %d axes, tree has %d", geom.ErrDimensionMismatch, mbr.Dim(), t.cfg.Dimension)
	}
	return nil
}

// growRoot puts the old root and its new sibling under a fresh internal root.
func (t *Tree) growRoot(sibling Node) {
	old := t.root
	root := newInternalNode(t.ctx)
	root.addChild(old)
	root.addChild(sibling)
	t.root = root
	t.height++
	rootChangesTotal.WithLabelValues("grow").Inc()
	t.ctx.logger.Debug("root split", "old_root", old.ID(), "sibling", sibling.ID(), "new_root", root.ID(), "height", t.height)
}

func (t *Tree) condenseRoot() {
	for {
		root, ok := t.root.(*InternalNode)
		if !ok {
			return
		}
		switch root.Len() {
		case 0:
			t.root = newLeafNode(t.ctx)
			t.height = 1
			rootChangesTotal.WithLabelValues("reset").Inc()
			t.ctx.logger.Debug("root emptied", "old_root", root.ID())
			return
		case 1:
			child := root.Child(0)
			child.setParent(nil)
			t.root = child
			t.height--
			rootChangesTotal.WithLabelValues("shrink").Inc()
			t.ctx.logger.Debug("root shrink", "old_root", root.ID(), "new_root", child.ID(), "height", t.height)
		default:
			return
		}
	}
}
