package ltp

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// resolveHNID reads the full byte stream named by an hnid: a value that is
// either a heap-id (when the low 5 bits read as node type "none") or a
// sub-node-id local to owner's sub-node tree, per spec §4.9's hnid rule
// shared by property bags and table cells alike.
func resolveHNID(heap *Heap, owner *ndb.Node, hnid uint32) ([]byte, error) {
	if format.NIDTypeOf(hnid) == format.NIDTypeNone {
		return heap.Read(format.HeapID(hnid))
	}
	if owner == nil {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "hnid %#x names a sub-node but no owning node was given", hnid)
	}
	sub, err := owner.Lookup(hnid)
	if err != nil {
		return nil, err
	}
	return sub.Read()
}
