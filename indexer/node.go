package indexer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ic-timon/mbrtree/geom"
)

// Node is the tree node interface. The set of implementations is closed:
// *LeafNode holds payload entries, *InternalNode holds child entries.
type Node interface {
	// IsLeaf returns true if this is a leaf node.
	IsLeaf() bool
	// MBR returns the cached bounding region of all entries (empty if none).
	MBR() geom.Region
	// ID returns the node identifier, unique within its tree.
	ID() uint64
	// Len returns the number of entries.
	Len() int
	IsEmpty() bool
	// IsUnderflow reports whether the node holds fewer than minEntries entries.
	IsUnderflow(minEntries int) bool
	// Entries returns a copy of the entry slice.
	Entries() []Entry
	// Height is 1 for leaves and 1 + the tallest child for internal nodes.
	Height() int
	// Parent returns the non-owning back-reference, nil for the root.
	Parent() *InternalNode
	// ChooseSubtree returns the leaf a region would be inserted into.
	ChooseSubtree(region geom.Region) *LeafNode
	// Search returns every leaf entry below this node whose region intersects query.
	Search(query geom.Region) []Entry
	insert(e Entry)
	remove(id uint64, region geom.Region) bool
	shouldSplit() bool
	split() Node
	setParent(p *InternalNode)
	appendMatches(query geom.Region, out []Entry) []Entry
}

var errNoChildren = errors.New("internal node has no children")

// treeContext is shared by every node of one tree.
type treeContext struct {
	capacity int
	split    SplitStrategy
	logger   *slog.Logger
	nodeSeq  uint64
}

func (c *treeContext) nextNodeID() uint64 {
	c.nodeSeq++
	return c.nodeSeq
}

type nodeBase struct {
	ctx     *treeContext
	id      uint64
	entries []Entry
	mbr     geom.Region
	parent  *InternalNode
}

func (b *nodeBase) MBR() geom.Region      { return b.mbr }
func (b *nodeBase) ID() uint64            { return b.id }
func (b *nodeBase) Len() int              { return len(b.entries) }
func (b *nodeBase) IsEmpty() bool         { return len(b.entries) == 0 }
func (b *nodeBase) Parent() *InternalNode { return b.parent }

func (b *nodeBase) IsUnderflow(minEntries int) bool { return len(b.entries) < minEntries }

func (b *nodeBase) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *nodeBase) setParent(p *InternalNode) { b.parent = p }

func (b *nodeBase) shouldSplit() bool { return len(b.entries) > b.ctx.capacity }

func (b *nodeBase) recalculateMBR() {
	var mbr geom.Region
	for _, e := range b.entries {
		if err := mbr.Combine(e.Region); err != nil {
			b.violation("recalculate mbr", err)
		}
	}
	b.mbr = mbr
}

// partition asks the active strategy for two groups and returns the entries of each.
// moved is nil when the node is too small to split.
func (b *nodeBase) partition() (kept, moved []Entry) {
	if len(b.entries) <= 2 {
		return b.entries, nil
	}
	regions := make([]geom.Region, len(b.entries))
	for i, e := range b.entries {
		regions[i] = e.Region
	}
	g1, g2 := b.ctx.split.Split(regions)
	if len(g1) == 0 || len(g2) == 0 || len(g1)+len(g2) != len(b.entries) {
		b.violation("split", fmt.Errorf("%s returned groups of %d and %d for %d entries",
			b.ctx.split.Name(), len(g1), len(g2), len(b.entries)))
	}
	seen := make([]bool, len(b.entries))
	take := func(group []int) []Entry {
		out := make([]Entry, 0, len(group))
		for _, i := range group {
			if i < 0 || i >= len(seen) || seen[i] {
				b.violation("split", fmt.Errorf("%s assigned entry %d twice or out of range", b.ctx.split.Name(), i))
			}
			seen[i] = true
			out = append(out, b.entries[i])
		}
		return out
	}
	return take(g1), take(g2)
}

func (b *nodeBase) violation(op string, err error) {
	err = fmt.Errorf("%w: %s on node %d: %v", ErrInvariantViolation, op, b.id, err)
	b.ctx.logger.Error("rtree structure corrupted", "node", b.id, "op", op, "err", err)
	panic(err)
}

// LeafNode holds payload entries, up to the tree's node capacity.
type LeafNode struct {
	nodeBase
}

func newLeafNode(ctx *treeContext) *LeafNode {
	return &LeafNode{nodeBase{
		ctx:     ctx,
		id:      ctx.nextNodeID(),
		entries: make([]Entry, 0, ctx.capacity+1),
	}}
}

// IsLeaf implements Node.
func (*LeafNode) IsLeaf() bool { return true }

// Height implements Node.
func (*LeafNode) Height() int { return 1 }

// ChooseSubtree implements Node.
func (n *LeafNode) ChooseSubtree(geom.Region) *LeafNode { return n }

func (n *LeafNode) insert(e Entry) {
	if e.Payload() == nil {
		n.violation("leaf insert", fmt.Errorf("entry %d has no payload", e.ID))
	}
	n.entries = append(n.entries, e)
	if err := n.mbr.Combine(e.Region); err != nil {
		n.violation("leaf insert", err)
	}
}

// remove deletes the entry with the given id. Identifiers are unique, so region is not consulted.
func (n *LeafNode) remove(id uint64, _ geom.Region) bool {
	for i, e := range n.entries {
		if e.ID != id {
			continue
		}
		copy(n.entries[i:], n.entries[i+1:])
		n.entries[len(n.entries)-1] = Entry{}
		n.entries = n.entries[:len(n.entries)-1]
		n.recalculateMBR()
		return true
	}
	return false
}

// Search implements Node.
func (n *LeafNode) Search(query geom.Region) []Entry {
	return n.appendMatches(query, nil)
}

func (n *LeafNode) appendMatches(query geom.Region, out []Entry) []Entry {
	for _, e := range n.entries {
		if e.Region.Intersects(query) {
			out = append(out, e)
		}
	}
	return out
}

// split moves one strategy group into a new sibling leaf. Payloads move, they are never copied.
func (n *LeafNode) split() Node {
	kept, moved := n.partition()
	if moved == nil {
		return nil
	}
	sibling := newLeafNode(n.ctx)
	n.entries = kept
	sibling.entries = append(sibling.entries, moved...)
	n.recalculateMBR()
	sibling.recalculateMBR()
	splitsTotal.WithLabelValues(n.ctx.split.Name(), "leaf").Inc()
	n.ctx.logger.Debug("leaf split", "strategy", n.ctx.split.Name(), "node", n.id, "sibling", sibling.id,
		"kept", len(n.entries), "moved", len(sibling.entries))
	return sibling
}

// InternalNode holds child entries; each entry exclusively owns one child node.
type InternalNode struct {
	nodeBase
}

func newInternalNode(ctx *treeContext) *InternalNode {
	return &InternalNode{nodeBase{
		ctx:     ctx,
		id:      ctx.nextNodeID(),
		entries: make([]Entry, 0, ctx.capacity+1),
	}}
}

// IsLeaf implements Node.
func (*InternalNode) IsLeaf() bool { return false }

// Height implements Node. An empty internal node reports 1.
func (n *InternalNode) Height() int {
	h := 0
	for _, e := range n.entries {
		if c := e.Child(); c != nil {
			h = max(h, c.Height())
		}
	}
	return h + 1
}

// Child returns the i-th child node, nil if out of range.
func (n *InternalNode) Child(i int) Node {
	if i < 0 || i >= len(n.entries) {
		return nil
	}
	return n.entries[i].Child()
}

// Children returns the child nodes in entry order.
func (n *InternalNode) Children() []Node {
	out := make([]Node, 0, len(n.entries))
	for _, e := range n.entries {
		out = append(out, e.Child())
	}
	return out
}

func (n *InternalNode) addChild(child Node) {
	child.setParent(n)
	n.entries = append(n.entries, newChildEntry(child))
	if err := n.mbr.Combine(child.MBR()); err != nil {
		n.violation("add child", err)
	}
}

// chooseChild returns the entry needing the least enlargement to cover region,
// ties broken by smaller area. -1 if the node has no entries.
func (n *InternalNode) chooseChild(region geom.Region) int {
	best := -1
	var bestEnlargement, bestArea float64
	for i, e := range n.entries {
		if e.Child() == nil {
			n.violation("choose subtree", fmt.Errorf("entry %d has no child", i))
		}
		enlargement, err := e.Region.Enlargement(region)
		if err != nil {
			n.violation("choose subtree", err)
		}
		area := e.Region.Area()
		if best < 0 || enlargement < bestEnlargement || (enlargement == bestEnlargement && area < bestArea) {
			best, bestEnlargement, bestArea = i, enlargement, area
		}
	}
	return best
}

// ChooseSubtree descends by least enlargement until it reaches a leaf.
func (n *InternalNode) ChooseSubtree(region geom.Region) *LeafNode {
	i := n.chooseChild(region)
	if i < 0 {
		n.violation("choose subtree", errNoChildren)
	}
	return n.entries[i].Child().ChooseSubtree(region)
}

// insert routes e into the best child, splits that child on overflow and adopts the
// new sibling. Overflow of n itself is left to the caller.
func (n *InternalNode) insert(e Entry) {
	i := n.chooseChild(e.Region)
	if i < 0 {
		n.violation("insert", errNoChildren)
	}
	child := n.entries[i].Child()
	child.insert(e)
	var sibling Node
	if child.shouldSplit() {
		sibling = child.split()
	}
	n.entries[i].Region = child.MBR()
	if sibling != nil {
		n.addChild(sibling)
	}
	n.recalculateMBR()
}

// remove tries each child whose region intersects region and stops at the first
// successful removal, then drops children left empty.
func (n *InternalNode) remove(id uint64, region geom.Region) bool {
	found := false
	for i := range n.entries {
		if !n.entries[i].Region.Intersects(region) {
			continue
		}
		child := n.entries[i].Child()
		if child.remove(id, region) {
			n.entries[i].Region = child.MBR()
			found = true
			break
		}
	}
	if !found {
		return false
	}
	n.pruneEmpty()
	n.recalculateMBR()
	return true
}

func (n *InternalNode) pruneEmpty() {
	kept := n.entries[:0]
	for _, e := range n.entries {
		if c := e.Child(); c.IsEmpty() {
			c.setParent(nil)
			continue
		}
		kept = append(kept, e)
	}
	clear(n.entries[len(kept):])
	n.entries = kept
}

// Search implements Node.
func (n *InternalNode) Search(query geom.Region) []Entry {
	return n.appendMatches(query, nil)
}

func (n *InternalNode) appendMatches(query geom.Region, out []Entry) []Entry {
	for _, e := range n.entries {
		if e.Region.Intersects(query) {
			out = e.Child().appendMatches(query, out)
		}
	}
	return out
}

// split moves one strategy group of children into a new sibling and re-parents them.
func (n *InternalNode) split() Node {
	kept, moved := n.partition()
	if moved == nil {
		return nil
	}
	sibling := newInternalNode(n.ctx)
	n.entries = kept
	for _, e := range moved {
		e.Child().setParent(sibling)
		sibling.entries = append(sibling.entries, e)
	}
	n.recalculateMBR()
	sibling.recalculateMBR()
	splitsTotal.WithLabelValues(n.ctx.split.Name(), "internal").Inc()
	n.ctx.logger.Debug("internal split", "strategy", n.ctx.split.Name(), "node", n.id, "sibling", sibling.id,
		"kept", len(n.entries), "moved", len(sibling.entries))
	return sibling
}
