// Package nameid implements the named-property map: the per-store mapping
// between (GUID, id-or-string) pairs and the dynamically-allocated prop-ids
// at and above 0x8000 that alias them, per spec §3.8/§4.11.
package nameid

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// Predefined GUIDs every store's named-property namespace carries
// regardless of content, per spec §6.
var (
	PSNone          = format.GUID{}
	PSMAPI          = format.GUID{Data1: 0x00020328, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}
	PSPublicStrings = format.GUID{Data1: 0x00020329, Data2: 0x0000, Data3: 0x0000, Data4: [8]byte{0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}
)

// NamedProp identifies a named property by its defining GUID plus either a
// numeric id (IsString false) or a string name (IsString true).
type NamedProp struct {
	GUID     format.GUID
	IsString bool
	ID       uint32
	Name     string
}

// Map is an opened named-property map: the store's name-id-map node's
// property bag, plus its entry/GUID/string streams.
type Map struct {
	bag     *ltp.PropertyContext
	buckets uint32
	entries []byte
	guids   []byte
	strings []byte
}

// Properties this map itself stores in its backing property bag, per
// spec §4.11.
const (
	propBucketCount  = 0x0001
	propGUIDStream   = 0x0002
	propEntryStream  = 0x0003
	propStringStream = 0x0004
	bucketPropBase   = 0x1000
)

// Open opens the named-property map rooted at the store's n_name_id_map
// node.
func Open(n *ndb.Node) (*Map, error) {
	bag, err := ltp.OpenPropertyContext(n)
	if err != nil {
		return nil, err
	}
	buckets, err := bag.ReadUint(propBucketCount)
	if err != nil {
		return nil, err
	}
	entries, err := bag.ReadBytes(propEntryStream)
	if err != nil {
		return nil, err
	}
	guids, err := bag.ReadBytes(propGUIDStream)
	if err != nil {
		return nil, err
	}
	strs, err := bag.ReadBytes(propStringStream)
	if err != nil {
		return nil, err
	}
	return &Map{bag: bag, buckets: uint32(buckets), entries: entries, guids: guids, strings: strs}, nil
}

// propCount returns the number of named properties allocated so far.
func (m *Map) propCount() int {
	return len(m.entries) / format.NameIDEntrySize
}

func (m *Map) readGUID(guidIndex uint16) (format.GUID, error) {
	switch guidIndex {
	case format.GUIDIndexPSNone:
		return PSNone, nil
	case format.GUIDIndexPSMapi:
		return PSMAPI, nil
	case format.GUIDIndexPSPublicStrings:
		return PSPublicStrings, nil
	}
	off := int(guidIndex-3) * format.GUIDSize
	if off < 0 || off+format.GUIDSize > len(m.guids) {
		return format.GUID{}, xerrors.New(xerrors.KindDatabaseCorrupt, "guid index %d out of range", guidIndex)
	}
	return format.DecodeGUID(m.guids[off:])
}

func (m *Map) guidIndex(g format.GUID) (uint16, error) {
	if g == PSNone {
		return format.GUIDIndexPSNone, nil
	}
	if g == PSMAPI {
		return format.GUIDIndexPSMapi, nil
	}
	if g == PSPublicStrings {
		return format.GUIDIndexPSPublicStrings, nil
	}
	for off := 0; off+format.GUIDSize <= len(m.guids); off += format.GUIDSize {
		candidate, err := format.DecodeGUID(m.guids[off:])
		if err != nil {
			return 0, err
		}
		if candidate == g {
			return uint16(off/format.GUIDSize) + 3, nil
		}
	}
	return 0, xerrors.NotFound(xerrors.KeyGUID, g)
}

// readString decodes the length-prefixed UTF-16LE string stored at byte
// offset off of the string stream.
func (m *Map) readString(off uint32) (string, error) {
	if int(off)+4 > len(m.strings) {
		return "", xerrors.New(xerrors.KindDatabaseCorrupt, "string stream offset %d out of range", off)
	}
	size := buf.U32LE(m.strings[off:])
	start := int(off) + 4
	end := start + int(size)
	if end > len(m.strings) {
		return "", xerrors.New(xerrors.KindDatabaseCorrupt, "string stream entry at %d exceeds stream", off)
	}
	if size%2 != 0 {
		return "", xerrors.New(xerrors.KindDatabaseCorrupt, "string stream entry at %d has odd byte length", off)
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(m.strings[start:end])
	if err != nil {
		// IgnoreBOM mode never rejects malformed input.
		return string(m.strings[start:end]), nil
	}
	return string(decoded), nil
}

func (m *Map) construct(index int) (NamedProp, error) {
	off := index * format.NameIDEntrySize
	if off+format.NameIDEntrySize > len(m.entries) {
		return NamedProp{}, xerrors.NotFound(xerrors.KeyPropID, uint32(index)+format.NamedPropBase)
	}
	entry, err := format.DecodeNameIDEntry(m.entries[off:])
	if err != nil {
		return NamedProp{}, err
	}
	g, err := m.readGUID(entry.GUIDIndex())
	if err != nil {
		return NamedProp{}, err
	}
	if entry.IsString() {
		s, err := m.readString(entry.IDOrOffset)
		if err != nil {
			return NamedProp{}, err
		}
		return NamedProp{GUID: g, IsString: true, Name: s}, nil
	}
	return NamedProp{GUID: g, IsString: false, ID: entry.IDOrOffset}, nil
}

// PropIDExists reports whether a prop id below 0x8000 (always a well-known
// MAPI property) or at/above 0x8000 (a named property) has been allocated.
func (m *Map) PropIDExists(id uint32) bool {
	if id < format.NamedPropBase {
		return true
	}
	return int(id-format.NamedPropBase) < m.propCount()
}

// Lookup resolves an allocated prop-id to the (GUID, id-or-name) it aliases.
// Prop-ids below 0x8000 resolve to (PS_MAPI, id) directly, matching the
// source's treatment of well-known MAPI properties.
func (m *Map) Lookup(id uint32) (NamedProp, error) {
	if id < format.NamedPropBase {
		return NamedProp{GUID: PSMAPI, IsString: false, ID: id}, nil
	}
	index := int(id - format.NamedPropBase)
	if index >= m.propCount() {
		return NamedProp{}, xerrors.NotFound(xerrors.KeyPropID, id)
	}
	return m.construct(index)
}

// GetPropList returns every prop-id this map has allocated, in entry-stream
// order.
func (m *Map) GetPropList() ([]uint32, error) {
	count := m.propCount()
	ids := make([]uint32, count)
	for i := 0; i < count; i++ {
		off := i * format.NameIDEntrySize
		entry, err := format.DecodeNameIDEntry(m.entries[off:])
		if err != nil {
			return nil, err
		}
		ids[i] = uint32(entry.PropIndex()) + format.NamedPropBase
	}
	return ids, nil
}

func computeHashBase(p NamedProp) uint32 {
	if p.IsString {
		b := make([]byte, 2*len(utf16.Encode([]rune(p.Name))))
		units := utf16.Encode([]rune(p.Name))
		for i, u := range units {
			buf.PutU16LE(b[2*i:], u)
		}
		return crcobf.CRC32(b)
	}
	return p.ID
}

func computeHashValue(guidIndex uint16, p NamedProp) uint32 {
	var tag uint32
	if p.IsString {
		tag = uint32(guidIndex)<<1 | 1
	} else {
		tag = uint32(guidIndex) << 1
	}
	return tag ^ computeHashBase(p)
}

func bucketPropID(hashValue, buckets uint32) uint16 {
	return uint16((hashValue % buckets) + bucketPropBase)
}

// FindID looks up the prop-id allocated for a numeric named property.
func (m *Map) FindID(g format.GUID, id uint32) (uint32, error) {
	return m.find(NamedProp{GUID: g, IsString: false, ID: id})
}

// FindName looks up the prop-id allocated for a string named property.
func (m *Map) FindName(g format.GUID, name string) (uint32, error) {
	return m.find(NamedProp{GUID: g, IsString: true, Name: name})
}

func (m *Map) find(p NamedProp) (uint32, error) {
	guidIndex, err := m.guidIndex(p.GUID)
	if err != nil {
		return 0, xerrors.NotFound(xerrors.KeyNamedProp, p)
	}

	// PS_MAPI numeric ids below 0x8000 are themselves the prop-id; no
	// bucket lookup is needed or possible (the source special-cases this
	// rather than hashing into the bucket stream).
	if guidIndex == format.GUIDIndexPSMapi && !p.IsString {
		if p.ID >= format.NamedPropBase {
			return 0, xerrors.NotFound(xerrors.KeyNamedProp, p)
		}
		return p.ID, nil
	}

	if m.buckets == 0 {
		return 0, xerrors.NotFound(xerrors.KeyNamedProp, p)
	}
	hashValue := computeHashValue(guidIndex, p)
	hashBase := computeHashBase(p)
	bucketID := bucketPropID(hashValue, m.buckets)

	if !m.bag.PropExists(bucketID) {
		return 0, xerrors.NotFound(xerrors.KeyNamedProp, p)
	}
	bucket, err := m.bag.ReadBytes(bucketID)
	if err != nil {
		return 0, err
	}
	for off := 0; off+format.NameIDEntrySize <= len(bucket); off += format.NameIDEntrySize {
		he, err := format.DecodeNameIDHashEntry(bucket[off:])
		if err != nil {
			return 0, err
		}
		if he.HashBase != hashBase || he.IsString() != p.IsString || he.GUIDIndex() != guidIndex {
			continue
		}
		propIndex := he.PropIndex()
		if p.IsString {
			resolved, err := m.construct(int(propIndex))
			if err != nil {
				return 0, err
			}
			if resolved.Name != p.Name {
				continue
			}
		}
		return uint32(propIndex) + format.NamedPropBase, nil
	}
	return 0, xerrors.NotFound(xerrors.KeyNamedProp, p)
}
