package ndb

import (
	"github.com/emk/pstsdk/internal/btree"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/xerrors"
)

// treeKind distinguishes the Node B+ tree from the Block B+ tree; both
// share the same page framing but carry different leaf entry shapes and a
// different page_type.
type treeKind int

const (
	treeNBT treeKind = iota
	treeBBT
)

func (k treeKind) pageType() format.PageType {
	if k == treeBBT {
		return format.PageTypeBBT
	}
	return format.PageTypeNBT
}

// btPage is one page of either top-level B+ tree, decoded into the generic
// shape btree.Node expects. Non-leaf pages carry BTEntry separators; leaf
// pages carry the tree-specific leaf entry type.
type btPage struct {
	db       *DB
	kind     treeKind
	level    byte
	nonLeaf  []format.BTEntry
	nbtLeafs []format.NBTLeafEntry
	bbtLeafs []format.BBTLeafEntry
}

// readBTPage reads the page at file offset ib, verifies its trailer and
// signature against bid, and decodes its entries for the given tree.
func (db *DB) readBTPage(bid, ib uint64, kind treeKind) (*btPage, error) {
	end := ib + format.PageSize
	if end > uint64(len(db.data)) {
		return nil, xerrors.New(xerrors.KindInvalidFormat, "page offset 0x%x out of range", ib)
	}
	page := db.data[ib:end]

	trailer, err := format.DecodePageTrailer(page, db.Width())
	if err != nil {
		return nil, err
	}
	if trailer.BID != bid {
		return nil, xerrors.New(xerrors.KindUnexpectedPage, "page at 0x%x has bid 0x%x, want 0x%x", ib, trailer.BID, bid)
	}
	if err := format.VerifyPageSignature(trailer, ib); err != nil {
		return nil, err
	}
	if trailer.Type != kind.pageType() {
		return nil, xerrors.New(xerrors.KindUnexpectedPage, "page at 0x%x has type %s, want %s", ib, trailer.Type, kind.pageType())
	}

	meta, err := format.DecodeBTPageMeta(page, db.Width())
	if err != nil {
		return nil, err
	}

	region := page[:format.BTPageEntriesRegion(db.Width())]
	p := &btPage{db: db, kind: kind, level: meta.Level}

	if meta.Level > 0 {
		size := format.BTEntrySize(db.Width())
		p.nonLeaf = make([]format.BTEntry, meta.NumEntries)
		for i := range p.nonLeaf {
			e, err := format.DecodeBTEntry(region[i*size:], db.Width())
			if err != nil {
				return nil, err
			}
			p.nonLeaf[i] = e
		}
		return p, nil
	}

	if kind == treeNBT {
		size := format.NBTLeafEntrySize(db.Width())
		p.nbtLeafs = make([]format.NBTLeafEntry, meta.NumEntries)
		for i := range p.nbtLeafs {
			e, err := format.DecodeNBTLeafEntry(region[i*size:], db.Width())
			if err != nil {
				return nil, err
			}
			p.nbtLeafs[i] = e
		}
		return p, nil
	}

	size := format.BBTLeafEntrySize(db.Width())
	p.bbtLeafs = make([]format.BBTLeafEntry, meta.NumEntries)
	for i := range p.bbtLeafs {
		e, err := format.DecodeBBTLeafEntry(region[i*size:], db.Width())
		if err != nil {
			return nil, err
		}
		p.bbtLeafs[i] = e
	}
	return p, nil
}

// NumValues implements btree.Node.
func (p *btPage) NumValues() int {
	if p.level > 0 {
		return len(p.nonLeaf)
	}
	if p.kind == treeNBT {
		return len(p.nbtLeafs)
	}
	return len(p.bbtLeafs)
}

// Key implements btree.Node.
func (p *btPage) Key(i int) uint64 {
	if p.level > 0 {
		return p.nonLeaf[i].Key
	}
	if p.kind == treeNBT {
		return uint64(p.nbtLeafs[i].NID)
	}
	return p.bbtLeafs[i].BID
}

// IsLeaf implements btree.Node.
func (p *btPage) IsLeaf() bool { return p.level == 0 }

// Value implements btree.Node.
func (p *btPage) Value(i int) any {
	if p.kind == treeNBT {
		return p.nbtLeafs[i]
	}
	return p.bbtLeafs[i]
}

// Child implements btree.Node.
func (p *btPage) Child(i int) (btree.Node, error) {
	e := p.nonLeaf[i]
	return p.db.readBTPage(e.ChildBID, e.ChildIB, p.kind)
}

// lookupBT is a thin wrapper around btree.Lookup typed for *btPage roots.
func lookupBT(root *btPage, key uint64) (any, error) {
	return btree.Lookup(root, key)
}
