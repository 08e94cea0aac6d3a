// Package ltp implements the Lists, Tables and Properties layer: the
// heap-on-node allocator, the BTH built atop it, and the property-bag and
// table-context structures the pst object model reads messages, folders
// and recipients through.
package ltp

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// Heap is an opened heap-on-node: the node's data pages plus the client
// signature and root allocation named by page 0's header.
type Heap struct {
	node      *ndb.Node
	pages     [][]byte
	clientSig format.HeapClientSignature
	rootID    format.HeapID
}

// OpenHeap reads n's data pages and validates the heap-on-node signature on
// the first one.
func OpenHeap(n *ndb.Node) (*Heap, error) {
	pages, err := n.Pages()
	if err != nil {
		return nil, err
	}
	return newHeapFromPages(n, pages)
}

func newHeapFromPages(n *ndb.Node, pages [][]byte) (*Heap, error) {
	if len(pages) == 0 {
		return nil, xerrors.New(xerrors.KindInvalidFormat, "node has no heap-on-node data")
	}
	first, err := format.DecodeHeapFirstHeader(pages[0])
	if err != nil {
		return nil, err
	}
	return &Heap{node: n, pages: pages, clientSig: first.ClientSignature, rootID: first.RootID}, nil
}

// ClientSignature identifies what higher-level structure (BTH, TC, PC, ...)
// this heap carries.
func (h *Heap) ClientSignature() format.HeapClientSignature { return h.clientSig }

// RootID is the heap id of the client structure's root allocation.
func (h *Heap) RootID() format.HeapID { return h.rootID }

// RequireClientSignature returns an error unless this heap's client
// signature matches want.
func (h *Heap) RequireClientSignature(want format.HeapClientSignature) error {
	if h.clientSig != want {
		return xerrors.New(xerrors.KindSigMismatch, "heap client signature 0x%02x, want 0x%02x", byte(h.clientSig), byte(want))
	}
	return nil
}

// pageMap decodes the allocation map of heap page pageIdx.
func (h *Heap) pageMap(pageIdx int) (format.HeapPageMap, error) {
	if pageIdx < 0 || pageIdx >= len(h.pages) {
		return format.HeapPageMap{}, xerrors.New(xerrors.KindDatabaseCorrupt, "heap page %d out of range (%d pages)", pageIdx, len(h.pages))
	}
	page := h.pages[pageIdx]

	var offset uint16
	if pageIdx == 0 {
		hdr, err := format.DecodeHeapFirstHeader(page)
		if err != nil {
			return format.HeapPageMap{}, err
		}
		offset = hdr.PageMapOffset
	} else {
		hdr, err := format.DecodeHeapPageHeader(page)
		if err != nil {
			return format.HeapPageMap{}, err
		}
		offset = hdr.PageMapOffset
	}
	return format.DecodeHeapPageMap(page, offset)
}

// alloc resolves a heap id to the byte range of the page it names. A null
// heap id resolves to a nil slice.
func (h *Heap) alloc(id format.HeapID) ([]byte, error) {
	if id.IsNull() {
		return nil, nil
	}
	pageIdx := int(id.Page())
	m, err := h.pageMap(pageIdx)
	if err != nil {
		return nil, err
	}
	start, end, ok := m.Alloc(int(id.Index()))
	if !ok {
		return nil, xerrors.NotFound(xerrors.KeyRowID, id)
	}
	page := h.pages[pageIdx]
	if int(end) > len(page) || start > end {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "heap allocation %v out of bounds", id)
	}
	return page[start:end], nil
}

// Size returns the byte length of heap id's allocation.
func (h *Heap) Size(id format.HeapID) (int, error) {
	b, err := h.alloc(id)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Read returns the full contents of heap id's allocation.
func (h *Heap) Read(id format.HeapID) ([]byte, error) {
	return h.alloc(id)
}

// ReadAt returns length bytes starting at offset within heap id's
// allocation.
func (h *Heap) ReadAt(id format.HeapID, offset, length int) ([]byte, error) {
	b, err := h.alloc(id)
	if err != nil {
		return nil, err
	}
	if offset < 0 || length < 0 || offset+length > len(b) {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "heap read [%d:%d+%d) exceeds allocation of %d bytes", offset, offset, length, len(b))
	}
	return b[offset : offset+length], nil
}
