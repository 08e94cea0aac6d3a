package format

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// PropEntry is the BTH leaf value stored for each property in a Property
// Context: the property's type and a heap/sub-node id carrying its value
// (inline for fixed-size <= 4-byte types, otherwise a heap id pointing at
// the real payload, or a sub-node id for oversized values).
type PropEntry struct {
	Type  PropType
	Value uint32 // heap_id, or inline value, or heapnode_id into a sub-node
}

// PropEntrySize is the fixed on-disk size of a prop_entry.
const PropEntrySize = 6

// DecodePropEntry decodes one prop_entry value (the BTH entry payload for a
// Property Context, keyed by 2-byte property id).
func DecodePropEntry(b []byte) (PropEntry, error) {
	if len(b) < PropEntrySize {
		return PropEntry{}, xerrors.New(xerrors.KindInvalidFormat, "prop entry truncated")
	}
	return PropEntry{
		Type:  PropType(buf.U16LE(b[0:])),
		Value: buf.U32LE(b[2:]),
	}, nil
}

// SubObject is an entry in a sub-node tree pointing at one constituent
// block of a node's data (used to reassemble oversized properties and
// table row matrices that spill out of the heap).
type SubObject struct {
	NID  uint32
	Size uint32
}

// SubObjectSize is the fixed on-disk size of a sub_object struct.
const SubObjectSize = 8

// DecodeSubObject decodes the sub_object struct an attachment's content
// property stores when the attachment is itself an embedded message: the
// node id of the nested message within the attachment node's sub-node tree.
func DecodeSubObject(b []byte) (SubObject, error) {
	if len(b) < SubObjectSize {
		return SubObject{}, xerrors.New(xerrors.KindInvalidFormat, "sub_object truncated")
	}
	return SubObject{
		NID:  buf.U32LE(b[0:]),
		Size: buf.U32LE(b[4:]),
	}, nil
}

// MVTOC is the table of contents prefixed to a multi-valued property's raw
// bytes: Count entries, Count+1 offsets marking each value's bounds.
type MVTOC struct {
	Count   uint32
	Offsets []uint32
}

// DecodeMVTOC decodes a multi-value table of contents from the start of a
// multi-valued property's decoded byte stream.
func DecodeMVTOC(b []byte) (MVTOC, error) {
	if len(b) < 4 {
		return MVTOC{}, xerrors.New(xerrors.KindInvalidFormat, "mv toc truncated")
	}
	count := buf.U32LE(b[0:])
	need := 4 + int(count+1)*4
	if len(b) < need {
		return MVTOC{}, xerrors.New(xerrors.KindInvalidFormat, "mv toc offsets truncated")
	}
	offs := make([]uint32, count+1)
	for i := range offs {
		offs[i] = buf.U32LE(b[4+i*4:])
	}
	return MVTOC{Count: count, Offsets: offs}, nil
}

// Value returns the i'th value's byte range within the MV property's raw
// data (the bytes following the TOC itself).
func (t MVTOC) Value(data []byte, i int) ([]byte, bool) {
	if i < 0 || i+1 >= len(t.Offsets) {
		return nil, false
	}
	start, end := t.Offsets[i], t.Offsets[i+1]
	if int(end) > len(data) || start > end {
		return nil, false
	}
	return data[start:end], true
}
