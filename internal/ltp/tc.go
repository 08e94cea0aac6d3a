package ltp

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// TableContext is a read-only tabular store: a fixed-width row layout, a
// row-id -> row-position BTH, and a row matrix that lives either inline in
// the heap or tiled across the pages of a sub-node, per spec §4.10.
type TableContext struct {
	heap     *Heap
	node     *ndb.Node
	header   format.TCHeader
	rowBTH   *BTH
	columns  map[uint16]format.ColumnDescription
	rowWidth int

	// Exactly one of these is populated, chosen by where header.RowMatrixID
	// points.
	inlineRows []byte
	subPages   [][]byte
}

// OpenTableContext opens n's heap as a table context, validating the TC
// client signature and parsing its header and row-index BTH.
func OpenTableContext(n *ndb.Node) (*TableContext, error) {
	h, err := OpenHeap(n)
	if err != nil {
		return nil, err
	}
	if err := h.RequireClientSignature(format.ClientSigTC); err != nil {
		return nil, err
	}
	hdrBytes, err := h.Read(h.RootID())
	if err != nil {
		return nil, err
	}
	header, err := format.DecodeTCHeader(hdrBytes)
	if err != nil {
		return nil, err
	}
	rowBTH, err := OpenBTH(h, header.RowBTreeID)
	if err != nil {
		return nil, err
	}

	tc := &TableContext{
		heap:     h,
		node:     n,
		header:   header,
		rowBTH:   rowBTH,
		columns:  make(map[uint16]format.ColumnDescription, len(header.Columns)),
		rowWidth: header.RowSize(),
	}
	for _, col := range header.Columns {
		tc.columns[col.PropID] = col
	}

	matrixID := uint32(header.RowMatrixID)
	if format.NIDTypeOf(matrixID) != format.NIDTypeNone {
		matrixNode, err := n.Lookup(matrixID)
		if err != nil {
			return nil, err
		}
		pages, err := matrixNode.Pages()
		if err != nil {
			return nil, err
		}
		tc.subPages = pages
	} else {
		rows, err := h.Read(header.RowMatrixID)
		if err != nil {
			return nil, err
		}
		tc.inlineRows = rows
	}
	return tc, nil
}

// Columns returns every column description in this table, in on-disk order.
func (t *TableContext) Columns() []format.ColumnDescription { return t.header.Columns }

// ColumnFor returns the column description for propID, if the table carries
// one.
func (t *TableContext) ColumnFor(propID uint16) (format.ColumnDescription, bool) {
	c, ok := t.columns[propID]
	return c, ok
}

func (t *TableContext) rowsPerPage() int {
	if len(t.subPages) == 0 || t.rowWidth == 0 {
		return 0
	}
	return len(t.subPages[0]) / t.rowWidth
}

// NumRows returns the total number of rows in the table.
func (t *TableContext) NumRows() int {
	if t.rowWidth == 0 {
		return 0
	}
	if t.subPages != nil {
		rpp := t.rowsPerPage()
		if rpp == 0 || len(t.subPages) == 0 {
			return 0
		}
		last := t.subPages[len(t.subPages)-1]
		return (len(t.subPages)-1)*rpp + len(last)/t.rowWidth
	}
	return len(t.inlineRows) / t.rowWidth
}

// rowBytes returns the row-width slice backing row position pos.
func (t *TableContext) rowBytes(pos int) ([]byte, error) {
	if pos < 0 || pos >= t.NumRows() {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "row position %d out of range (%d rows)", pos, t.NumRows())
	}
	if t.subPages != nil {
		rpp := t.rowsPerPage()
		pageIdx := pos / rpp
		off := (pos % rpp) * t.rowWidth
		page := t.subPages[pageIdx]
		if off+t.rowWidth > len(page) {
			return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "row %d exceeds its matrix page", pos)
		}
		return page[off : off+t.rowWidth], nil
	}
	off := pos * t.rowWidth
	return t.inlineRows[off : off+t.rowWidth], nil
}

// RowID returns the row-id stored at row position pos (a row's first four
// bytes, per spec §4.10).
func (t *TableContext) RowID(pos int) (uint32, error) {
	row, err := t.rowBytes(pos)
	if err != nil {
		return 0, err
	}
	return buf.U32LE(row), nil
}

// LookupRow resolves a row-id to its row position via the row-index BTH.
func (t *TableContext) LookupRow(rowID uint32) (int, error) {
	v, err := t.rowBTH.Lookup(uint64(rowID))
	if err != nil {
		if _, ok := err.(*xerrors.NotFoundError); ok {
			return 0, xerrors.NotFound(xerrors.KeyRowID, rowID)
		}
		return 0, err
	}
	return int(buf.ULE(v)), nil
}

// FixedCell returns the raw column.Size bytes stored for propID at row
// position pos.
func (t *TableContext) FixedCell(pos int, propID uint16) ([]byte, error) {
	col, ok := t.columns[propID]
	if !ok {
		return nil, xerrors.NotFound(xerrors.KeyPropID, propID)
	}
	row, err := t.rowBytes(pos)
	if err != nil {
		return nil, err
	}
	start := int(col.Offset)
	end := start + int(col.Size)
	if end > len(row) {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "column %#x cell exceeds row width", propID)
	}
	return row[start:end], nil
}

// VariableCell reads propID's 4-byte cell at row position pos as an hnid and
// resolves it through the heap or this table's owning node's sub-node tree,
// the same rule a property bag's variable-width values use.
func (t *TableContext) VariableCell(pos int, propID uint16) ([]byte, error) {
	cell, err := t.FixedCell(pos, propID)
	if err != nil {
		return nil, err
	}
	if len(cell) < 4 {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "column %#x is too narrow for an hnid", propID)
	}
	return resolveHNID(t.heap, t.node, buf.U32LE(cell))
}

// ReadUint reads propID's cell at row position pos as an unsigned integer
// of whatever width its column declares.
func (t *TableContext) ReadUint(pos int, propID uint16) (uint64, error) {
	b, err := t.FixedCell(pos, propID)
	if err != nil {
		return 0, err
	}
	return buf.ULE(b), nil
}

// ReadString reads propID's cell at row position pos as a string, the same
// PT_UNICODE/PT_STRING8 rule a property bag uses for its own string props.
func (t *TableContext) ReadString(pos int, propID uint16) (string, error) {
	col, ok := t.columns[propID]
	if !ok {
		return "", xerrors.NotFound(xerrors.KeyPropID, propID)
	}
	b, err := t.VariableCell(pos, propID)
	if err != nil {
		return "", err
	}
	switch col.Type {
	case format.PTUnicode:
		return decodeUTF16LE(b), nil
	case format.PTString8:
		return string(b), nil
	default:
		return "", xerrors.New(xerrors.KindDatabaseCorrupt, "column %#x is not a string type (%#x)", propID, uint16(col.Type))
	}
}

// ReadRowProps reads a caller-chosen subset of a row's cells in one pass,
// the column-projection counterpart to the original reader's row cursor
// reading only the columns a caller asked for rather than the whole row.
func (t *TableContext) ReadRowProps(pos int, ids ...uint16) (map[uint16][]byte, error) {
	out := make(map[uint16][]byte, len(ids))
	for _, id := range ids {
		col, ok := t.columns[id]
		if !ok {
			continue
		}
		if scalarWidth(col.Type) == 0 {
			b, err := t.VariableCell(pos, id)
			if err != nil {
				return nil, err
			}
			out[id] = b
			continue
		}
		b, err := t.FixedCell(pos, id)
		if err != nil {
			return nil, err
		}
		out[id] = b
	}
	return out, nil
}

// PropExists tests the existence bit for propID at row position pos, within
// the row's existence bitmap (MSB-first within each byte per spec §4.10).
func (t *TableContext) PropExists(pos int, propID uint16) (bool, error) {
	col, ok := t.columns[propID]
	if !ok {
		return false, nil
	}
	row, err := t.rowBytes(pos)
	if err != nil {
		return false, err
	}
	bitmapStart := int(t.header.SizeOffsets[format.TCOffsetOne])
	byteOff := bitmapStart + int(col.BitOffset)/8
	if byteOff >= len(row) {
		return false, xerrors.New(xerrors.KindDatabaseCorrupt, "column %#x bit offset exceeds row width", propID)
	}
	bit := byte(0x80 >> (col.BitOffset % 8))
	return row[byteOff]&bit != 0, nil
}
