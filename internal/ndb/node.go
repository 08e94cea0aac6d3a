package ndb

import (
	"github.com/emk/pstsdk/internal/btree"
	"github.com/emk/pstsdk/internal/format"
)

// Node is a lightweight facade over one entry of the Node B+ tree: its id,
// the data/sub-node block ids it resolves to, and its parent (used by
// search folders). Ltp and pst build on this rather than the raw NBT leaf
// entry so they don't need to reach back into the BBT themselves.
type Node struct {
	db        *DB
	NID       uint32
	ParentNID uint32
	dataBID   uint64
	subBID    uint64
}

// OpenNode resolves a node id to its Node facade.
func (db *DB) OpenNode(nid uint32) (*Node, error) {
	e, err := db.LookupNode(nid)
	if err != nil {
		return nil, err
	}
	return &Node{db: db, NID: e.NID, ParentNID: e.ParentNID, dataBID: e.DataBID, subBID: e.SubBID}, nil
}

// Read returns the node's full logical data stream, assembled across
// whatever external/extended block fan-out backs it. A node with no data
// block assigned reads as nil.
func (n *Node) Read() ([]byte, error) {
	return n.db.ReadNodeData(n.dataBID)
}

// Pages returns the node's data as separate, un-concatenated external leaf
// payloads, in order. The heap-on-node reader addresses allocations by
// page index and needs these boundaries rather than a single flattened
// byte stream.
func (n *Node) Pages() ([][]byte, error) {
	return n.db.readNodePages(n.dataBID)
}

// HasSubNodes reports whether this node owns a sub-node tree.
func (n *Node) HasSubNodes() bool { return n.subBID != 0 }

// Lookup resolves a sub-node id within this node's sub-node tree.
func (n *Node) Lookup(subNID uint32) (*Node, error) {
	leaf, err := n.db.lookupSubNode(n.subBID, subNID)
	if err != nil {
		return nil, err
	}
	return &Node{db: n.db, NID: leaf.NID, dataBID: leaf.DataID, subBID: leaf.SubID}, nil
}

// SubNodeIDs returns every sub-node id directly owned by this node, in key
// order. A node with no sub-node tree returns nil.
func (n *Node) SubNodeIDs() ([]uint32, error) {
	if n.subBID == 0 {
		return nil, nil
	}
	root, err := n.db.readSubNodeBlock(n.subBID)
	if err != nil {
		return nil, err
	}
	it, err := btree.NewIterator(root)
	if err != nil {
		return nil, err
	}
	var ids []uint32
	for it.Valid() {
		leaf := it.Value().(format.SubLeafEntry)
		ids = append(ids, leaf.NID)
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
