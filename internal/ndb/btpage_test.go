package ndb

import (
	"testing"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/format"
)

// buildLeafPage lays out a single-level B+ tree leaf page: raw, pre-encoded
// entries followed by the (cEnt, cEntMax, cbEnt, cLevel) meta footer and a
// CRC/signature-valid trailer, at absolute file offset ib.
func buildLeafPage(w format.Width, pageType format.PageType, bid, ib uint64, entrySize int, entries [][]byte) []byte {
	page := make([]byte, format.PageSize)
	for i, e := range entries {
		copy(page[i*entrySize:], e)
	}

	region := format.BTPageEntriesRegion(w)
	page[region+0] = byte(len(entries))
	page[region+1] = byte(len(entries))
	page[region+2] = byte(entrySize)
	page[region+3] = 0 // leaf

	trailerSize := format.PageTrailerSize(w)
	t := page[format.PageSize-trailerSize:]
	t[0] = byte(pageType)
	t[1] = byte(pageType)
	sig := crcobf.Signature(bid, ib)
	data := page[:format.PageSize-trailerSize]
	if w == format.ANSI {
		buf.PutU16LE(t[2:], sig)
		buf.PutU32LE(t[4:], uint32(bid))
		buf.PutU32LE(t[8:], crcobf.CRC32(data))
	} else {
		buf.PutU16LE(t[2:], sig)
		buf.PutU32LE(t[4:], crcobf.CRC32(data))
		buf.PutU64LE(t[8:], bid)
	}
	return page
}

func encodeNBTLeaf(nid uint32, dataBID, subBID uint64, parent uint32) []byte {
	e := make([]byte, format.NBTLeafEntrySize(format.Unicode))
	buf.PutU32LE(e[0:], nid)
	buf.PutU64LE(e[8:], dataBID)
	buf.PutU64LE(e[16:], subBID)
	buf.PutU32LE(e[24:], parent)
	return e
}

func encodeBBTLeaf(bid, ib uint64, size, refCount uint16) []byte {
	e := make([]byte, format.BBTLeafEntrySize(format.Unicode))
	buf.PutU64LE(e[0:], bid)
	buf.PutU64LE(e[8:], ib)
	buf.PutU16LE(e[16:], size)
	buf.PutU16LE(e[18:], refCount)
	return e
}

func newTestDB(t *testing.T) (*DB, uint64, uint64) {
	t.Helper()
	const nbtIB = 0x4200
	const bbtIB = 0x4600
	const nbtBID = 0x20
	const bbtBID = 0x21
	const nodeNID = 0x22
	const dataBID = 0x30
	const blockIB = 0x8000

	image := make([]byte, 0x9000)

	nbtEntries := [][]byte{encodeNBTLeaf(nodeNID, dataBID, 0, 0)}
	nbtPage := buildLeafPage(format.Unicode, format.PageTypeNBT, nbtBID, nbtIB, format.NBTLeafEntrySize(format.Unicode), nbtEntries)
	copy(image[nbtIB:], nbtPage)

	bbtEntries := [][]byte{encodeBBTLeaf(dataBID, blockIB, 64, 1)}
	bbtPage := buildLeafPage(format.Unicode, format.PageTypeBBT, bbtBID, bbtIB, format.BBTLeafEntrySize(format.Unicode), bbtEntries)
	copy(image[bbtIB:], bbtPage)

	db := &DB{
		data: image,
		header: format.Header{
			Width:       format.Unicode,
			CryptMethod: format.CryptNone,
			Root: format.Root{
				NBTRootBID: nbtBID,
				NBTRootIB:  nbtIB,
				BBTRootBID: bbtBID,
				BBTRootIB:  bbtIB,
			},
		},
	}
	return db, nodeNID, dataBID
}

func TestLookupNodeAndBlock(t *testing.T) {
	db, nid, dataBID := newTestDB(t)

	nbt, err := db.LookupNode(uint32(nid))
	if err != nil {
		t.Fatalf("LookupNode: %v", err)
	}
	if nbt.NID != uint32(nid) || nbt.DataBID != dataBID {
		t.Fatalf("nbt entry = %+v", nbt)
	}

	bbt, err := db.LookupBlock(dataBID)
	if err != nil {
		t.Fatalf("LookupBlock: %v", err)
	}
	if bbt.BID != dataBID || bbt.IB != 0x8000 || bbt.Size != 64 {
		t.Fatalf("bbt entry = %+v", bbt)
	}
}

func TestLookupNodeNotFound(t *testing.T) {
	db, _, _ := newTestDB(t)
	if _, err := db.LookupNode(0xFFFF); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestLookupNodeBadPageSignature(t *testing.T) {
	db, _, _ := newTestDB(t)
	sigOffset := db.header.Root.NBTRootIB + uint64(format.PageSize) - uint64(format.PageTrailerSize(format.Unicode)) + 2
	db.data[sigOffset] ^= 0xFF // corrupt the page signature, leaving the crc-covered data intact
	if _, err := db.LookupNode(0x22); err == nil {
		t.Fatalf("expected signature mismatch error")
	}
}
