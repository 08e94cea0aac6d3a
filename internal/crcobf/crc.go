// Package crcobf implements the page/block CRC-32 check and the two
// external-data obfuscation schemes (permute and cyclic) used by the PST/OST
// on-disk format.
package crcobf

import "hash/crc32"

// crcTable is the reflected CRC-32 table the format uses for page, block and
// header CRCs. It is the standard IEEE 802.3 polynomial (0xEDB88320), so
// hash/crc32's built-in IEEE table produces bit-identical results.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CRC32 computes the CRC used to validate page trailers, block trailers and
// the two header CRC ranges.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// Signature computes the fold-to-16-bits signature stored in a page or block
// trailer: the low and high halves of (id xor address), xored together.
func Signature(id, address uint64) uint16 {
	v := id ^ address
	return uint16((v >> 16) ^ v)
}
