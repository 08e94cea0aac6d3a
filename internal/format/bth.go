package format

import (
	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// BTHHeader is the root header of a B+ tree-in-heap: it fixes the key and
// value (entry) sizes used by every node in the tree and names the heap
// allocation holding the root page.
type BTHHeader struct {
	Signature byte
	KeySize   byte
	EntrySize byte
	NumLevels byte
	Root      HeapID
}

// BTHHeaderSize is the fixed size of a BTH header.
const BTHHeaderSize = 8

// DecodeBTHHeader decodes a BTH header, validating its client signature.
func DecodeBTHHeader(b []byte) (BTHHeader, error) {
	if len(b) < BTHHeaderSize {
		return BTHHeader{}, xerrors.New(xerrors.KindInvalidFormat, "bth header truncated")
	}
	if HeapClientSignature(b[0]) != ClientSigBTH {
		return BTHHeader{}, xerrors.New(xerrors.KindSigMismatch, "bth signature 0x%02x != 0xB5", b[0])
	}
	return BTHHeader{
		Signature: b[0],
		KeySize:   b[1],
		EntrySize: b[2],
		NumLevels: b[3],
		Root:      HeapID(buf.U32LE(b[4:])),
	}, nil
}

// BTHNonLeafEntry pairs a separator key with the heap id of the next level
// page that may contain it.
type BTHNonLeafEntry struct {
	Key  []byte
	Page HeapID
}

// DecodeBTHNonLeafEntry decodes one non-leaf BTH entry of the given key
// size; the entry's on-disk size is keySize+4.
func DecodeBTHNonLeafEntry(b []byte, keySize int) (BTHNonLeafEntry, error) {
	if len(b) < keySize+4 {
		return BTHNonLeafEntry{}, xerrors.New(xerrors.KindInvalidFormat, "bth nonleaf entry truncated")
	}
	key := make([]byte, keySize)
	copy(key, b[:keySize])
	return BTHNonLeafEntry{Key: key, Page: HeapID(buf.U32LE(b[keySize:]))}, nil
}

// BTHLeafEntry pairs a key with its raw value bytes; the caller interprets
// the value according to the tree's purpose (a prop_entry, a nameid, a row).
type BTHLeafEntry struct {
	Key   []byte
	Value []byte
}

// DecodeBTHLeafEntry decodes one leaf BTH entry given the tree's fixed key
// and entry sizes.
func DecodeBTHLeafEntry(b []byte, keySize, entrySize int) (BTHLeafEntry, error) {
	if len(b) < keySize+entrySize {
		return BTHLeafEntry{}, xerrors.New(xerrors.KindInvalidFormat, "bth leaf entry truncated")
	}
	key := make([]byte, keySize)
	copy(key, b[:keySize])
	val := make([]byte, entrySize)
	copy(val, b[keySize:keySize+entrySize])
	return BTHLeafEntry{Key: key, Value: val}, nil
}
