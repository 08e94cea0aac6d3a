package format

import (
	"testing"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
)

func TestDecodeBlockTrailerUnicode(t *testing.T) {
	block := make([]byte, 64)
	data := block[:48]
	for i := range data {
		data[i] = byte(i + 1)
	}
	trailer := block[48:]
	buf.PutU16LE(trailer[0:], 48)
	buf.PutU16LE(trailer[2:], 0xABCD)
	buf.PutU32LE(trailer[4:], crcobf.CRC32(data))
	buf.PutU64LE(trailer[8:], 0x99)

	bt, err := DecodeBlockTrailer(block, Unicode)
	if err != nil {
		t.Fatalf("DecodeBlockTrailer: %v", err)
	}
	if bt.CB != 48 || bt.BID != 0x99 {
		t.Fatalf("bt = %+v", bt)
	}
}

func TestVerifyBlockSignature(t *testing.T) {
	block := make([]byte, 64)
	data := block[:48]
	for i := range data {
		data[i] = byte(i + 1)
	}
	const bid = 0x99
	const address = 0x8000
	trailer := block[48:]
	buf.PutU16LE(trailer[0:], 48)
	buf.PutU16LE(trailer[2:], crcobf.Signature(bid, address))
	buf.PutU32LE(trailer[4:], crcobf.CRC32(data))
	buf.PutU64LE(trailer[8:], bid)

	bt, err := DecodeBlockTrailer(block, Unicode)
	if err != nil {
		t.Fatalf("DecodeBlockTrailer: %v", err)
	}
	if err := VerifyBlockSignature(bt, address); err != nil {
		t.Fatalf("VerifyBlockSignature: %v", err)
	}
	if err := VerifyBlockSignature(bt, address+1); err == nil {
		t.Fatalf("expected signature mismatch for wrong address")
	}
}

func TestDecodeBlockTrailerCorruptCB(t *testing.T) {
	block := make([]byte, 64)
	trailer := block[48:]
	buf.PutU16LE(trailer[0:], 9000) // far larger than the block
	if _, err := DecodeBlockTrailer(block, Unicode); err == nil {
		t.Fatalf("expected error for oversized cb")
	}
}

func TestDecodeExtendedBlock(t *testing.T) {
	b := make([]byte, 8+2*8)
	b[0] = byte(BlockExtended)
	b[1] = 1
	buf.PutU16LE(b[2:], 2)
	buf.PutU32LE(b[4:], 2048)
	buf.PutU64LE(b[8:], 0x10)
	buf.PutU64LE(b[16:], 0x11)

	eb, err := DecodeExtendedBlock(b, Unicode)
	if err != nil {
		t.Fatalf("DecodeExtendedBlock: %v", err)
	}
	if eb.Level != 1 || eb.Count != 2 || len(eb.BIDs) != 2 || eb.BIDs[1] != 0x11 {
		t.Fatalf("eb = %+v", eb)
	}
}

func TestDecodeExtendedBlockWrongType(t *testing.T) {
	b := make([]byte, 8)
	b[0] = byte(BlockExternal)
	if _, err := DecodeExtendedBlock(b, Unicode); err == nil {
		t.Fatalf("expected unexpected-block error")
	}
}

func TestDecodeSubLeafEntryANSI(t *testing.T) {
	b := make([]byte, SubLeafEntrySize(ANSI))
	buf.PutU32LE(b[0:], 0x55)
	buf.PutU32LE(b[4:], 0x1000)
	buf.PutU32LE(b[8:], 0)

	e, err := DecodeSubLeafEntry(b, ANSI)
	if err != nil {
		t.Fatalf("DecodeSubLeafEntry: %v", err)
	}
	if e.NID != 0x55 || e.DataID != 0x1000 {
		t.Fatalf("entry = %+v", e)
	}
}
