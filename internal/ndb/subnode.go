package ndb

import (
	"github.com/emk/pstsdk/internal/btree"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/xerrors"
)

// subNodePage adapts one decoded sub-node block (leaf or non-leaf) to
// btree.Node, the same way btPage adapts NBT/BBT pages. Sub-node blocks
// carry their own block trailer rather than a page trailer, and their
// entry arrays are read straight off readRawBlock's payload.
type subNodePage struct {
	db      *DB
	level   byte
	nonLeaf []format.SubNonLeafEntry
	leaves  []format.SubLeafEntry
}

func (db *DB) readSubNodeBlock(bid uint64) (*subNodePage, error) {
	raw, _, err := db.readRawBlock(bid)
	if err != nil {
		return nil, err
	}
	hdr, err := format.DecodeSubNodeBlockHeader(raw)
	if err != nil {
		return nil, err
	}
	body := raw[4:]
	p := &subNodePage{db: db, level: hdr.Level}

	if hdr.Level > 0 {
		size := format.SubNonLeafEntrySize(db.Width())
		p.nonLeaf = make([]format.SubNonLeafEntry, hdr.Count)
		for i := range p.nonLeaf {
			e, err := format.DecodeSubNonLeafEntry(body[i*size:], db.Width())
			if err != nil {
				return nil, err
			}
			p.nonLeaf[i] = e
		}
		return p, nil
	}

	size := format.SubLeafEntrySize(db.Width())
	p.leaves = make([]format.SubLeafEntry, hdr.Count)
	for i := range p.leaves {
		e, err := format.DecodeSubLeafEntry(body[i*size:], db.Width())
		if err != nil {
			return nil, err
		}
		p.leaves[i] = e
	}
	return p, nil
}

func (p *subNodePage) NumValues() int {
	if p.level > 0 {
		return len(p.nonLeaf)
	}
	return len(p.leaves)
}

func (p *subNodePage) Key(i int) uint64 {
	if p.level > 0 {
		return uint64(p.nonLeaf[i].NIDKey)
	}
	return uint64(p.leaves[i].NID)
}

func (p *subNodePage) IsLeaf() bool { return p.level == 0 }

func (p *subNodePage) Value(i int) any { return p.leaves[i] }

func (p *subNodePage) Child(i int) (btree.Node, error) {
	return p.db.readSubNodeBlock(p.nonLeaf[i].SubBID)
}

// lookupSubNode resolves nid within the sub-node tree rooted at rootBID.
func (db *DB) lookupSubNode(rootBID uint64, nid uint32) (format.SubLeafEntry, error) {
	root, err := db.readSubNodeBlock(rootBID)
	if err != nil {
		return format.SubLeafEntry{}, err
	}
	v, err := btree.Lookup(root, uint64(nid))
	if err != nil {
		if _, ok := err.(*xerrors.NotFoundError); ok {
			return format.SubLeafEntry{}, xerrors.NotFound(xerrors.KeyNodeID, nid)
		}
		return format.SubLeafEntry{}, err
	}
	return v.(format.SubLeafEntry), nil
}
