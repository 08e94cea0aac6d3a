package format

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// GUID mirrors the Windows wire format of a GUID: a little-endian uint32, two
// little-endian uint16s, and 8 raw bytes.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// GUIDSize is the fixed on-disk size of a GUID.
const GUIDSize = 16

// DecodeGUID decodes a GUID from its 16-byte wire representation.
func DecodeGUID(b []byte) (GUID, error) {
	if len(b) < GUIDSize {
		return GUID{}, xerrors.New(xerrors.KindInvalidFormat, "guid truncated")
	}
	var g GUID
	g.Data1 = buf.U32LE(b[0:])
	g.Data2 = buf.U16LE(b[4:])
	g.Data3 = buf.U16LE(b[6:])
	copy(g.Data4[:], b[8:16])
	return g, nil
}

// String renders the GUID in the canonical 8-4-4-4-12 hyphenated form, by
// re-packing the wire struct's mixed-endian fields into uuid.UUID's
// big-endian byte layout and delegating formatting to it.
func (g GUID) String() string {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], g.Data1)
	binary.BigEndian.PutUint16(u[4:6], g.Data2)
	binary.BigEndian.PutUint16(u[6:8], g.Data3)
	copy(u[8:16], g.Data4[:])
	return u.String()
}
