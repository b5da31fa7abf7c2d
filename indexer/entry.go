package indexer

import (
	"bytes"

	"github.com/ic-timon/mbrtree/geom"
)

// Entry associates a region and identifier with either a payload (leaf entries)
// or a child node (internal entries). Exactly one of the two is ever set.
type Entry struct {
	Region geom.Region
	ID     uint64
	ref    entryRef
}

// entryRef is the closed set {*Payload, childRef}.
type entryRef interface{ isEntryRef() }

// Payload is an opaque byte blob owned by the index.
type Payload struct {
	data []byte
}

func (*Payload) isEntryRef() {}

// Bytes returns a copy of the payload.
func (p *Payload) Bytes() []byte {
	if p == nil {
		return nil
	}
	return bytes.Clone(p.data)
}

// Len returns the payload size in bytes.
func (p *Payload) Len() int {
	if p == nil {
		return 0
	}
	return len(p.data)
}

type childRef struct {
	node Node
}

func (childRef) isEntryRef() {}

func newPayloadEntry(region geom.Region, id uint64, data []byte) Entry {
	return Entry{Region: region, ID: id, ref: &Payload{data: bytes.Clone(data)}}
}

func newChildEntry(child Node) Entry {
	return Entry{Region: child.MBR(), ID: child.ID(), ref: childRef{node: child}}
}

// Payload returns the payload of a leaf entry, nil for internal entries.
func (e Entry) Payload() *Payload {
	p, _ := e.ref.(*Payload)
	return p
}

// Child returns the child node of an internal entry, nil for leaf entries.
func (e Entry) Child() Node {
	c, ok := e.ref.(childRef)
	if !ok {
		return nil
	}
	return c.node
}

// IsLeafEntry reports whether e carries a payload.
func (e Entry) IsLeafEntry() bool {
	_, ok := e.ref.(*Payload)
	return ok
}
