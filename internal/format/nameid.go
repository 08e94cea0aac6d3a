package format

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// NameIDEntry is one entry of the named-property -> prop-id map. IDOrOffset
// holds either the numeric property id (when IsString is false) or the byte
// offset of the property's name within the string stream (when true).
type NameIDEntry struct {
	IDOrOffset uint32
	index      uint32
}

// NameIDEntrySize is the fixed on-disk size of a nameid entry.
const NameIDEntrySize = 8

// DecodeNameIDEntry decodes one nameid entry from the named-property map's
// entry stream.
func DecodeNameIDEntry(b []byte) (NameIDEntry, error) {
	if len(b) < NameIDEntrySize {
		return NameIDEntry{}, xerrors.New(xerrors.KindInvalidFormat, "nameid entry truncated")
	}
	return NameIDEntry{
		IDOrOffset: buf.U32LE(b[0:]),
		index:      buf.U32LE(b[4:]),
	}, nil
}

// PropIndex returns the high 16 bits of index: the offset, relative to
// 0x8000, of the prop id this name was assigned.
func (n NameIDEntry) PropIndex() uint16 { return uint16(n.index >> 16) }

// GUIDIndex returns the GUID stream index this name's GUID is stored at.
// 0, 1, and 2 are reserved (PS_NONE, PS_MAPI, PS_PUBLIC_STRINGS); 3+ index
// into the GUID stream proper.
func (n NameIDEntry) GUIDIndex() uint16 { return uint16(uint16(n.index) >> 1) }

// IsString reports whether this entry's name is a string (kind "named by
// string") rather than a numeric MNID_ID entry.
func (n NameIDEntry) IsString() bool { return n.index&0x1 != 0 }

// NameIDHashEntry is one entry of a named-property hash bucket's byte array,
// carrying the hash base of the name (string or numeric id).
type NameIDHashEntry struct {
	HashBase uint32
	index    uint32
}

// DecodeNameIDHashEntry decodes one nameid_hash_entry.
func DecodeNameIDHashEntry(b []byte) (NameIDHashEntry, error) {
	if len(b) < NameIDEntrySize {
		return NameIDHashEntry{}, xerrors.New(xerrors.KindInvalidFormat, "nameid hash entry truncated")
	}
	return NameIDHashEntry{
		HashBase: buf.U32LE(b[0:]),
		index:    buf.U32LE(b[4:]),
	}, nil
}

// PropIndex returns the prop id offset encoded in this hash entry, same
// encoding as NameIDEntry.PropIndex.
func (n NameIDHashEntry) PropIndex() uint16 { return uint16(n.index >> 16) }

// GUIDIndex returns the GUID stream index, same encoding as
// NameIDEntry.GUIDIndex.
func (n NameIDHashEntry) GUIDIndex() uint16 { return uint16(uint16(n.index) >> 1) }

// IsString reports whether this entry names a string property.
func (n NameIDHashEntry) IsString() bool { return n.index&0x1 != 0 }

// NamedPropBase is the first dynamically-assigned named property id; named
// properties always occupy prop ids at or above this value.
const NamedPropBase = 0x8000

// GUID stream index reserved for PS_NONE.
const GUIDIndexPSNone = 0

// GUID stream index reserved for the well-known PS_MAPI property set.
const GUIDIndexPSMapi = 1

// GUID stream index reserved for the well-known PS_PUBLIC_STRINGS set.
const GUIDIndexPSPublicStrings = 2
