package format

import (
	"testing"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
)

// buildUnicodeHeader constructs a minimal, CRC-valid 564-byte Unicode
// header buffer for exercising DecodeHeader.
func buildUnicodeHeader(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, 564)
	copy(b[offMagic:], Magic[:])
	copy(b[offMagicClient:], MagicClient[:])
	buf.PutU16LE(b[offVer:], 23)
	buf.PutU16LE(b[uVerClient:], 19)
	b[uCryptMethod] = byte(CryptCyclic)

	root := b[uRootOffset:]
	buf.PutU64LE(root[uRootFileEOF:], 0x4400)
	buf.PutU64LE(root[uRootNBTRef:], 0x20)
	buf.PutU64LE(root[uRootNBTRef+8:], 0x4200)
	buf.PutU64LE(root[uRootBBTRef:], 0x21)
	buf.PutU64LE(root[uRootBBTRef+8:], 0x4600)

	full := crcobf.CRC32(b[offMagicClient:uDwCRCFull])
	buf.PutU32LE(b[uDwCRCFull:], full)

	partial := crcobf.CRC32(b[offMagicClient:uBLockSem])
	buf.PutU32LE(b[offCRCPartial:], partial)

	return b
}

func TestDecodeHeaderUnicode(t *testing.T) {
	b := buildUnicodeHeader(t)

	h, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Width != Unicode {
		t.Fatalf("Width = %v, want Unicode", h.Width)
	}
	if h.CryptMethod != CryptCyclic {
		t.Fatalf("CryptMethod = %v, want CryptCyclic", h.CryptMethod)
	}
	if h.Root.FileEOF != 0x4400 {
		t.Fatalf("FileEOF = 0x%x, want 0x4400", h.Root.FileEOF)
	}
	if h.Root.NBTRootBID != 0x20 || h.Root.NBTRootIB != 0x4200 {
		t.Fatalf("nbt root = %x/%x", h.Root.NBTRootBID, h.Root.NBTRootIB)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	b := buildUnicodeHeader(t)
	b[0] = 'X'
	if _, err := DecodeHeader(b); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestDecodeHeaderBadCRC(t *testing.T) {
	b := buildUnicodeHeader(t)
	b[offCRCPartial] ^= 0xFF
	if _, err := DecodeHeader(b); err == nil {
		t.Fatalf("expected crc failure")
	}
}

func buildANSIHeader(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, 512)
	copy(b[offMagic:], Magic[:])
	copy(b[offMagicClient:], MagicClient[:])
	buf.PutU16LE(b[offVer:], 15)
	buf.PutU16LE(b[aVerClient:], 19)
	b[aCryptMethod] = byte(CryptPermute)

	root := b[aRootOffset:]
	buf.PutU32LE(root[aRootFileEOF:], 0x2200)
	buf.PutU32LE(root[aRootNBTRef:], 0x10)
	buf.PutU32LE(root[aRootNBTRef+4:], 0x2200)

	partial := crcobf.CRC32(b[offMagicClient:aBLockSem])
	buf.PutU32LE(b[offCRCPartial:], partial)

	return b
}

func TestDecodeHeaderANSI(t *testing.T) {
	b := buildANSIHeader(t)

	h, err := DecodeHeader(b)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Width != ANSI {
		t.Fatalf("Width = %v, want ANSI", h.Width)
	}
	if h.CryptMethod != CryptPermute {
		t.Fatalf("CryptMethod = %v", h.CryptMethod)
	}
	if h.Root.FileEOF != 0x2200 {
		t.Fatalf("FileEOF = 0x%x, want 0x2200", h.Root.FileEOF)
	}
}
