// Package buf contains endian-safe, bounds-checked byte accessors shared by
// the format, ndb and ltp layers. The PST/OST file format is little-endian
// throughout; every multi-byte field decoded anywhere in this module goes
// through one of these helpers so that byte order lives in exactly one place.
package buf

import "encoding/binary"

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// U64LE reads a little-endian uint64 from b. Returns 0 when b is too short.
func U64LE(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// I32LE reads a little-endian int32 from b. Returns 0 when b is too short.
func I32LE(b []byte) int32 {
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

// I16LE reads a little-endian int16 from b. Returns 0 when b is too short.
func I16LE(b []byte) int16 {
	if len(b) < 2 {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

// ULE reads a little-endian unsigned integer of arbitrary width (up to 8
// bytes) from b, for keys whose declared size varies (BTH keys are 1-8
// bytes depending on the tree).
func ULE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// PutU16LE writes a little-endian uint16 to the start of b.
func PutU16LE(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// PutU32LE writes a little-endian uint32 to the start of b.
func PutU32LE(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// PutU64LE writes a little-endian uint64 to the start of b.
func PutU64LE(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
