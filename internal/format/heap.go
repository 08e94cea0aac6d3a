package format

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// HeapID is a heap-on-node allocation id: a page index combined with the
// slot index within that page's allocation table.
type HeapID uint32

// Page returns the page (0-based block index) a heap id refers to.
func (h HeapID) Page() uint16 { return uint16(h >> 16) }

// Index returns the 0-based allocation slot within the heap id's page.
func (h HeapID) Index() uint16 { return uint16(((h >> 5) - 1) & 0x7FF) }

// IsNull reports whether h is the null heap id.
func (h HeapID) IsNull() bool { return h == 0 }

// HeapFirstHeader is the header prefixed to the first block of a
// heap-on-node, carrying the client signature and the root BTH/PC/TC
// allocation.
type HeapFirstHeader struct {
	PageMapOffset   uint16
	Signature       byte
	ClientSignature HeapClientSignature
	RootID          HeapID
}

// HeapFirstHeaderSize is the fixed size of a heap first header.
const HeapFirstHeaderSize = 8

// DecodeHeapFirstHeader decodes the header occupying the first 8 bytes of a
// heap-on-node's first block, validating the 0xEC signature byte.
func DecodeHeapFirstHeader(b []byte) (HeapFirstHeader, error) {
	if len(b) < HeapFirstHeaderSize {
		return HeapFirstHeader{}, xerrors.New(xerrors.KindInvalidFormat, "heap first header truncated")
	}
	if b[2] != HeapSignature {
		return HeapFirstHeader{}, xerrors.New(xerrors.KindSigMismatch, "heap signature 0x%02x != 0xEC", b[2])
	}
	return HeapFirstHeader{
		PageMapOffset:   buf.U16LE(b[0:]),
		Signature:       b[2],
		ClientSignature: HeapClientSignature(b[3]),
		RootID:          HeapID(buf.U32LE(b[4:])),
	}, nil
}

// HeapPageHeader is the smaller header used on heap blocks after the first.
type HeapPageHeader struct {
	PageMapOffset uint16
}

// HeapPageHeaderSize is the fixed size of a non-first heap page header.
const HeapPageHeaderSize = 2

// DecodeHeapPageHeader decodes the 2-byte header on a non-first heap block.
func DecodeHeapPageHeader(b []byte) (HeapPageHeader, error) {
	if len(b) < HeapPageHeaderSize {
		return HeapPageHeader{}, xerrors.New(xerrors.KindInvalidFormat, "heap page header truncated")
	}
	return HeapPageHeader{PageMapOffset: buf.U16LE(b[0:])}, nil
}

// HeapPageMap lists the byte-offset boundaries of each allocation on one
// heap block, so slot i occupies data[Allocs[i]:Allocs[i+1]].
type HeapPageMap struct {
	NumAllocs uint16
	NumFrees  uint16
	Allocs    []uint16
}

// DecodeHeapPageMap decodes the allocation map at the given offset within a
// heap block, as pointed to by that block's PageMapOffset.
func DecodeHeapPageMap(b []byte, offset uint16) (HeapPageMap, error) {
	m := b[offset:]
	if len(m) < 4 {
		return HeapPageMap{}, xerrors.New(xerrors.KindInvalidFormat, "heap page map truncated")
	}
	hm := HeapPageMap{
		NumAllocs: buf.U16LE(m[0:]),
		NumFrees:  buf.U16LE(m[2:]),
	}
	n := int(hm.NumAllocs) + 1
	need := 4 + n*2
	if len(m) < need {
		return HeapPageMap{}, xerrors.New(xerrors.KindInvalidFormat, "heap page map allocs truncated")
	}
	hm.Allocs = make([]uint16, n)
	for i := 0; i < n; i++ {
		hm.Allocs[i] = buf.U16LE(m[4+i*2:])
	}
	return hm, nil
}

// Alloc returns the byte range, relative to the start of a heap block's
// data area, of allocation index i (0-based).
func (m HeapPageMap) Alloc(i int) (start, end uint16, ok bool) {
	if i < 0 || i+1 >= len(m.Allocs) {
		return 0, 0, false
	}
	return m.Allocs[i], m.Allocs[i+1], true
}
