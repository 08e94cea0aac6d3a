package ltp

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// PropertyContext is a read-only property bag: a node's heap, opened as a
// BTH keyed by 2-byte prop-id with a 6-byte (type, payload) value per
// spec §4.9.
type PropertyContext struct {
	heap *Heap
	node *ndb.Node
	bth  *BTH
}

// OpenPropertyContext opens n's heap as a property bag, validating the PC
// client signature.
func OpenPropertyContext(n *ndb.Node) (*PropertyContext, error) {
	h, err := OpenHeap(n)
	if err != nil {
		return nil, err
	}
	if err := h.RequireClientSignature(format.ClientSigPC); err != nil {
		return nil, err
	}
	bth, err := OpenBTH(h, h.RootID())
	if err != nil {
		return nil, err
	}
	return &PropertyContext{heap: h, node: n, bth: bth}, nil
}

func (c *PropertyContext) entry(id uint16) (format.PropEntry, error) {
	v, err := c.bth.Lookup(uint64(id))
	if err != nil {
		if _, ok := err.(*xerrors.NotFoundError); ok {
			return format.PropEntry{}, xerrors.NotFound(xerrors.KeyPropID, id)
		}
		return format.PropEntry{}, err
	}
	return format.DecodePropEntry(v)
}

// PropExists reports whether id has a value in this bag.
func (c *PropertyContext) PropExists(id uint16) bool {
	_, err := c.entry(id)
	return err == nil
}

// PropType returns the MAPI type tag stored for id.
func (c *PropertyContext) PropType(id uint16) (format.PropType, error) {
	e, err := c.entry(id)
	return e.Type, err
}

// PropIDs returns every prop-id present in this bag, in key order.
func (c *PropertyContext) PropIDs() ([]uint16, error) {
	it, err := c.bth.Iterate()
	if err != nil {
		return nil, err
	}
	var ids []uint16
	for it.Valid() {
		ids = append(ids, uint16(it.Key()))
		if err := it.Next(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// scalarWidth returns the inline/heap-indirected width, in bytes, of a
// fixed-size property type, or 0 for variable-width (string/binary/MV)
// types that resolve through an hnid instead.
func scalarWidth(t format.PropType) int {
	switch t {
	case format.PTShort:
		return 2
	case format.PTLong, format.PTFloat, format.PTError, format.PTBoolean:
		return 4
	case format.PTDouble, format.PTCurrency, format.PTAppTime, format.PTLongLong, format.PTSysTime:
		return 8
	case format.PTGUID:
		return 16
	default:
		return 0
	}
}

// ReadBytes resolves id's value to its raw bytes: inline bytes of payload4
// for types that fit in it, the heap allocation it names for wider fixed
// types, or the heap/sub-node stream it names (via hnid) for variable and
// multi-valued types. The multi-value TOC, if any, is left unparsed; see
// ReadMultiValues.
func (c *PropertyContext) ReadBytes(id uint16) ([]byte, error) {
	e, err := c.entry(id)
	if err != nil {
		return nil, err
	}
	switch w := scalarWidth(e.Type); {
	case w == 0:
		return resolveHNID(c.heap, c.node, e.Value)
	case w <= 4:
		b := make([]byte, 4)
		buf.PutU32LE(b, e.Value)
		return b[:w], nil
	default:
		return c.heap.Read(format.HeapID(e.Value))
	}
}

// ReadUint reads id's value as an unsigned integer of whatever width its
// type declares.
func (c *PropertyContext) ReadUint(id uint16) (uint64, error) {
	b, err := c.ReadBytes(id)
	if err != nil {
		return 0, err
	}
	return buf.ULE(b), nil
}

// ReadBool reads id's value per the PT_BOOLEAN rule: a non-zero low byte of
// the inline payload is true.
func (c *PropertyContext) ReadBool(id uint16) (bool, error) {
	b, err := c.ReadBytes(id)
	if err != nil {
		return false, err
	}
	return len(b) > 0 && b[0] != 0, nil
}

// ReadString reads id's value as a string: UTF-16LE decoded for PT_UNICODE,
// passed through byte-for-byte for PT_STRING8 (codepage translation is a
// caller concern per spec §6).
func (c *PropertyContext) ReadString(id uint16) (string, error) {
	e, err := c.entry(id)
	if err != nil {
		return "", err
	}
	b, err := resolveHNID(c.heap, c.node, e.Value)
	if err != nil {
		return "", err
	}
	switch e.Type {
	case format.PTUnicode:
		return decodeUTF16LE(b), nil
	case format.PTString8:
		return string(b), nil
	default:
		return "", xerrors.New(xerrors.KindDatabaseCorrupt, "prop %#x is not a string type (%#x)", id, uint16(e.Type))
	}
}

// ReadMultiValues reads id's value as a multi-valued property, parsing its
// in-buffer TOC and slicing out each element's raw bytes.
func (c *PropertyContext) ReadMultiValues(id uint16) ([][]byte, error) {
	e, err := c.entry(id)
	if err != nil {
		return nil, err
	}
	if !e.Type.IsMultiValued() {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "prop %#x is not multi-valued (%#x)", id, uint16(e.Type))
	}
	b, err := resolveHNID(c.heap, c.node, e.Value)
	if err != nil {
		return nil, err
	}
	toc, err := format.DecodeMVTOC(b)
	if err != nil {
		return nil, err
	}
	tocSize := 4 + len(toc.Offsets)*4
	if tocSize > len(b) {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "mv prop %#x toc exceeds buffer", id)
	}
	data := b[tocSize:]
	vals := make([][]byte, toc.Count)
	for i := range vals {
		v, ok := toc.Value(data, i)
		if !ok {
			return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "mv prop %#x toc entry %d out of range", id, i)
		}
		vals[i] = v
	}
	return vals, nil
}
