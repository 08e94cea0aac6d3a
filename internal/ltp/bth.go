package ltp

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/btree"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/xerrors"
)

// BTH is a B+ tree-in-heap: the row index of a table context, the property
// map of a property context, and the named-property hash buckets are all one
// of these, differing only in key size, entry size and what the caller does
// with a leaf's value bytes.
type BTH struct {
	heap      *Heap
	keySize   int
	entrySize int
	numLevels byte
	root      format.HeapID
}

// OpenBTH reads a BTH header from headerID (the heap allocation naming the
// header is not always the heap's own root id: a table context's row-index
// BTH header sits inside its TCINFO allocation, not at the heap root) and
// returns a BTH ready to Lookup or Iterate.
func OpenBTH(h *Heap, headerID format.HeapID) (*BTH, error) {
	b, err := h.Read(headerID)
	if err != nil {
		return nil, err
	}
	hdr, err := format.DecodeBTHHeader(b)
	if err != nil {
		return nil, err
	}
	return &BTH{
		heap:      h,
		keySize:   int(hdr.KeySize),
		entrySize: int(hdr.EntrySize),
		numLevels: hdr.NumLevels,
		root:      hdr.Root,
	}, nil
}

// KeySize is the fixed width, in bytes, of every key in this tree.
func (b *BTH) KeySize() int { return b.keySize }

// EntrySize is the fixed width, in bytes, of every leaf value in this tree.
func (b *BTH) EntrySize() int { return b.entrySize }

func (b *BTH) rootNode() (*bthPage, error) {
	return newBTHPage(b.heap, b.root, b.numLevels, b.keySize, b.entrySize)
}

// Lookup returns the raw value bytes stored under key, or a not-found error.
func (b *BTH) Lookup(key uint64) ([]byte, error) {
	root, err := b.rootNode()
	if err != nil {
		return nil, err
	}
	v, err := btree.Lookup(root, key)
	if err != nil {
		return nil, err
	}
	return v.(format.BTHLeafEntry).Value, nil
}

// Iterate returns an iterator over this tree's leaf entries in key order.
// it.Value() yields a format.BTHLeafEntry.
func (b *BTH) Iterate() (*btree.Iterator, error) {
	root, err := b.rootNode()
	if err != nil {
		return nil, err
	}
	return btree.NewIterator(root)
}

// bthPage adapts one heap allocation of a BTH (either a non-leaf page of
// separator keys or a leaf page of key/value entries) to internal/btree's
// Node interface, the same way ndb's btPage and subNodePage adapt their own
// on-disk page shapes.
type bthPage struct {
	heap      *Heap
	level     byte
	keySize   int
	entrySize int
	nonLeaf   []format.BTHNonLeafEntry
	leaves    []format.BTHLeafEntry
}

func newBTHPage(h *Heap, id format.HeapID, level byte, keySize, entrySize int) (*bthPage, error) {
	data, err := h.Read(id)
	if err != nil {
		return nil, err
	}
	p := &bthPage{heap: h, level: level, keySize: keySize, entrySize: entrySize}
	if level == 0 {
		stride := keySize + entrySize
		if stride == 0 {
			return nil, xerrors.New(xerrors.KindInvalidFormat, "bth leaf page has zero-width entries")
		}
		for off := 0; off+stride <= len(data); off += stride {
			e, err := format.DecodeBTHLeafEntry(data[off:], keySize, entrySize)
			if err != nil {
				return nil, err
			}
			p.leaves = append(p.leaves, e)
		}
		return p, nil
	}
	stride := keySize + 4
	for off := 0; off+stride <= len(data); off += stride {
		e, err := format.DecodeBTHNonLeafEntry(data[off:], keySize)
		if err != nil {
			return nil, err
		}
		p.nonLeaf = append(p.nonLeaf, e)
	}
	return p, nil
}

func (p *bthPage) NumValues() int {
	if p.level == 0 {
		return len(p.leaves)
	}
	return len(p.nonLeaf)
}

func (p *bthPage) Key(i int) uint64 {
	if p.level == 0 {
		return buf.ULE(p.leaves[i].Key)
	}
	return buf.ULE(p.nonLeaf[i].Key)
}

func (p *bthPage) IsLeaf() bool { return p.level == 0 }

func (p *bthPage) Value(i int) any { return p.leaves[i] }

func (p *bthPage) Child(i int) (btree.Node, error) {
	return newBTHPage(p.heap, p.nonLeaf[i].Page, p.level-1, p.keySize, p.entrySize)
}
