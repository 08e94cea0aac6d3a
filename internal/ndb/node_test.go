package ndb

import (
	"bytes"
	"testing"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/format"
)

// buildRawBlock pads payload to the 64-byte block alignment and appends a
// CRC/signature-valid block trailer for bid at absolute offset ib.
func buildRawBlock(w format.Width, bid, ib uint64, payload []byte) []byte {
	trailerSize := format.BlockTrailerSize(w)
	diskSize := align64(len(payload) + trailerSize)
	block := make([]byte, diskSize)
	copy(block, payload)

	t := block[diskSize-trailerSize:]
	data := block[:len(payload)]
	sig := crcobf.Signature(bid, ib)
	if w == format.ANSI {
		buf.PutU16LE(t[0:], uint16(len(payload)))
		buf.PutU16LE(t[2:], sig)
		buf.PutU32LE(t[4:], uint32(bid))
		buf.PutU32LE(t[8:], crcobf.CRC32(data))
	} else {
		buf.PutU16LE(t[0:], uint16(len(payload)))
		buf.PutU16LE(t[2:], sig)
		buf.PutU32LE(t[4:], crcobf.CRC32(data))
		buf.PutU64LE(t[8:], bid)
	}
	return block
}

func encodeSubLeafBlock(level byte, entries []format.SubLeafEntry) []byte {
	entrySize := format.SubLeafEntrySize(format.Unicode)
	raw := make([]byte, 4+len(entries)*entrySize)
	raw[1] = level
	buf.PutU16LE(raw[2:], uint16(len(entries)))
	for i, e := range entries {
		off := 4 + i*entrySize
		buf.PutU32LE(raw[off:], e.NID)
		buf.PutU64LE(raw[off+8:], e.DataID)
		buf.PutU64LE(raw[off+16:], e.SubID)
	}
	return raw
}

// newFullTestDB builds a synthetic Unicode store with one message-like node
// (pointing at a permute-encrypted external data block and a one-entry
// sub-node tree) wired up through both top-level B+ trees.
func newFullTestDB(t *testing.T, plaintext []byte) (*DB, uint32, uint32) {
	t.Helper()
	const nbtIB = 0x4200
	const bbtIB = 0x4600
	const dataBlockIB = 0x8000
	const subBlockIB = 0x8100

	const nbtBID = 0x20
	const bbtBID = 0x21
	const nodeNID = 0x42
	const dataBID = 0x50
	const subTreeBID = 0x52
	const subEntryNID = 0x60

	image := make([]byte, 0x9000)

	encrypted := append([]byte(nil), plaintext...)
	crcobf.Permute(encrypted, true)
	dataBlock := buildRawBlock(format.Unicode, dataBID, dataBlockIB, encrypted)
	copy(image[dataBlockIB:], dataBlock)

	subRaw := encodeSubLeafBlock(0, []format.SubLeafEntry{{NID: subEntryNID, DataID: 0, SubID: 0}})
	subBlock := buildRawBlock(format.Unicode, subTreeBID, subBlockIB, subRaw)
	copy(image[subBlockIB:], subBlock)

	nbtEntries := [][]byte{encodeNBTLeaf(nodeNID, dataBID, subTreeBID, 0)}
	nbtPage := buildLeafPage(format.Unicode, format.PageTypeNBT, nbtBID, nbtIB, format.NBTLeafEntrySize(format.Unicode), nbtEntries)
	copy(image[nbtIB:], nbtPage)

	bbtEntries := [][]byte{
		encodeBBTLeaf(dataBID, dataBlockIB, uint16(len(encrypted)), 1),
		encodeBBTLeaf(subTreeBID, subBlockIB, uint16(len(subRaw)), 1),
	}
	bbtPage := buildLeafPage(format.Unicode, format.PageTypeBBT, bbtBID, bbtIB, format.BBTLeafEntrySize(format.Unicode), bbtEntries)
	copy(image[bbtIB:], bbtPage)

	db := &DB{
		data: image,
		header: format.Header{
			Width:       format.Unicode,
			CryptMethod: format.CryptPermute,
			Root: format.Root{
				NBTRootBID: nbtBID,
				NBTRootIB:  nbtIB,
				BBTRootBID: bbtBID,
				BBTRootIB:  bbtIB,
			},
		},
	}
	return db, nodeNID, subEntryNID
}

func TestNodeReadDecryptsExternalBlock(t *testing.T) {
	plaintext := []byte("hello pst world!")
	db, nid, _ := newFullTestDB(t, plaintext)

	n, err := db.OpenNode(nid)
	if err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	got, err := n.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Read = %q, want %q", got, plaintext)
	}
}

func TestNodeReadBadBlockSignature(t *testing.T) {
	plaintext := []byte("hello pst world!")
	db, nid, _ := newFullTestDB(t, plaintext)

	const dataBlockIB = 0x8000
	trailerSize := format.BlockTrailerSize(format.Unicode)
	diskSize := align64(len(plaintext) + trailerSize)
	sigOffset := uint64(dataBlockIB+diskSize-trailerSize) + 2
	db.data[sigOffset] ^= 0xFF // corrupt the block signature, leaving the crc-covered data intact

	n, err := db.OpenNode(nid)
	if err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	if _, err := n.Read(); err == nil {
		t.Fatalf("expected block signature mismatch error")
	}
}

func TestNodeSubNodeLookupAndEnumeration(t *testing.T) {
	db, nid, subNID := newFullTestDB(t, []byte("x"))

	n, err := db.OpenNode(nid)
	if err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	if !n.HasSubNodes() {
		t.Fatalf("expected node to have sub-nodes")
	}

	sub, err := n.Lookup(subNID)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if sub.NID != subNID {
		t.Fatalf("sub.NID = 0x%x, want 0x%x", sub.NID, subNID)
	}

	ids, err := n.SubNodeIDs()
	if err != nil {
		t.Fatalf("SubNodeIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != subNID {
		t.Fatalf("SubNodeIDs = %v, want [0x%x]", ids, subNID)
	}
}

func TestNodeLookupMissingSubNode(t *testing.T) {
	db, nid, _ := newFullTestDB(t, []byte("x"))
	n, err := db.OpenNode(nid)
	if err != nil {
		t.Fatalf("OpenNode: %v", err)
	}
	if _, err := n.Lookup(0xFFFF); err == nil {
		t.Fatalf("expected not-found error for missing sub-node")
	}
}
