package format

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// ColumnDescription describes one column of a Table Context row: its
// property type and id, and where within the fixed-width row buffer its
// value (or an existence bit, for the bitmap region) lives.
type ColumnDescription struct {
	Type      PropType
	PropID    uint16
	Offset    uint16
	Size      byte
	BitOffset byte
}

// ColumnDescriptionSize is the fixed on-disk size of a column_description.
const ColumnDescriptionSize = 8

// DecodeColumnDescription decodes one column_description entry.
func DecodeColumnDescription(b []byte) (ColumnDescription, error) {
	if len(b) < ColumnDescriptionSize {
		return ColumnDescription{}, xerrors.New(xerrors.KindInvalidFormat, "column description truncated")
	}
	return ColumnDescription{
		Type:      PropType(buf.U16LE(b[0:])),
		PropID:    buf.U16LE(b[2:]),
		Offset:    buf.U16LE(b[4:]),
		Size:      b[6],
		BitOffset: b[7],
	}, nil
}

// TCHeader is the header of a Table Context: the four row-size partition
// boundaries, the heap ids of the row index BTH and (for large tables) the
// row matrix sub-node, and the column array.
type TCHeader struct {
	Signature   byte
	NumColumns  byte
	SizeOffsets [TCOffsetMax]uint16
	RowBTreeID  HeapID
	RowMatrixID HeapID
	Columns     []ColumnDescription
}

// TCHeaderFixedSize is the size of a TC header up to (not including) the
// column array.
const TCHeaderFixedSize = 2 + 4*2 + 4 + 4 + 4

// DecodeTCHeader decodes a Table Context header and its column array.
func DecodeTCHeader(b []byte) (TCHeader, error) {
	if len(b) < TCHeaderFixedSize {
		return TCHeader{}, xerrors.New(xerrors.KindInvalidFormat, "tc header truncated")
	}
	if HeapClientSignature(b[0]) != ClientSigTC {
		return TCHeader{}, xerrors.New(xerrors.KindSigMismatch, "tc signature 0x%02x != 0x7C", b[0])
	}
	h := TCHeader{
		Signature:  b[0],
		NumColumns: b[1],
	}
	for i := 0; i < int(TCOffsetMax); i++ {
		h.SizeOffsets[i] = buf.U16LE(b[2+i*2:])
	}
	h.RowBTreeID = HeapID(buf.U32LE(b[10:]))
	h.RowMatrixID = HeapID(buf.U32LE(b[14:]))
	// bytes [18:22) are the TCI_4B "unused" padding; no fields of interest.

	need := TCHeaderFixedSize + int(h.NumColumns)*ColumnDescriptionSize
	if len(b) < need {
		return TCHeader{}, xerrors.New(xerrors.KindInvalidFormat, "tc header columns truncated")
	}
	h.Columns = make([]ColumnDescription, h.NumColumns)
	for i := range h.Columns {
		cd, err := DecodeColumnDescription(b[TCHeaderFixedSize+i*ColumnDescriptionSize:])
		if err != nil {
			return TCHeader{}, err
		}
		h.Columns[i] = cd
	}
	return h, nil
}

// RowSize returns the total width, in bytes, of one row in the matrix: the
// offset boundary recorded for the bitmap region, which is the sum of all
// fixed-width column widths plus the existence bitmap.
func (h TCHeader) RowSize() int {
	return int(h.SizeOffsets[TCOffsetBitmap])
}
