package format

import (
	"fmt"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// MagicClient is the two-byte magic at offset 0x08, common to both widths.
var MagicClient = [2]byte{'S', 'M'}

// Header layout offsets shared by both widths up through the version field,
// per the on-disk header documented for dwMagic/wVer/wVerClient/bPlatform.
const (
	offMagic       = 0x00 // 4 bytes: "!BDN"
	offCRCPartial  = 0x04 // 4 bytes
	offMagicClient = 0x08 // 2 bytes: "SM"
	offVer         = 0x0A // 2 bytes
	offVerClient   = 0x0C // 2 bytes
	offPlatformCr  = 0x0E // 1 byte
	offPlatformCb  = 0x0F // 1 byte
)

// VerUnicodeMin is the smallest wVer value stored by a Unicode (64-bit)
// store; anything below it is a pre-Outlook-2003 ANSI (32-bit) store.
const VerUnicodeMin = 20

// Magic is the four-byte signature at the very start of a PST/OST file.
var Magic = [4]byte{'!', 'B', 'D', 'N'}

// Root mirrors root<T>: the pointers and counters the header keeps for the
// two top-level B+ trees and the allocation maps.
type Root struct {
	FileEOF      uint64
	AMapLast     uint64
	AMapFree     uint64
	PMapFree     uint64
	NBTRootBID   uint64
	NBTRootIB    uint64
	BBTRootBID   uint64
	BBTRootIB    uint64
	AMapValid    byte
	ARVecARCount byte
}

// Header is the decoded, width-normalized file header. Both the ANSI and
// Unicode on-disk layouts decode into this same shape; Width records which
// on-disk layout produced it so callers can size block/node ids correctly.
type Header struct {
	Width       Width
	VerClient   uint16
	CryptMethod CryptMethod
	Root        Root
}

// headerSizeFor returns the total on-disk header size for a given width.
// Unicode headers are 564 bytes; ANSI headers are 512 bytes (one page).
func headerSizeFor(w Width) int {
	if w == ANSI {
		return 512
	}
	return 564
}

// DecodeHeader reads and validates the file header from the first bytes of
// a PST/OST file, auto-detecting ANSI vs Unicode from wVer, and verifying
// both the magic and the partial/full header CRCs.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < 0x0C {
		return Header{}, xerrors.New(xerrors.KindInvalidFormat, "header too short to read version (%d bytes)", len(b))
	}
	if b[offMagic] != Magic[0] || b[offMagic+1] != Magic[1] || b[offMagic+2] != Magic[2] || b[offMagic+3] != Magic[3] {
		return Header{}, xerrors.New(xerrors.KindInvalidFormat, "bad file magic")
	}
	if b[offMagicClient] != MagicClient[0] || b[offMagicClient+1] != MagicClient[1] {
		return Header{}, xerrors.New(xerrors.KindInvalidFormat, "bad client magic")
	}

	ver := buf.U16LE(b[offVer:])
	width := ANSI
	if ver >= VerUnicodeMin {
		width = Unicode
	}

	size := headerSizeFor(width)
	if len(b) < size {
		return Header{}, xerrors.New(xerrors.KindInvalidFormat, "header truncated: have %d bytes, need %d", len(b), size)
	}

	if width == Unicode {
		return decodeUnicodeHeader(b, ver)
	}
	return decodeANSIHeader(b, ver)
}

// Unicode header field offsets (64-bit store, wVer >= 20).
const (
	uVerClient    = offVerClient
	uCryptMethod  = 0x0201
	uRootOffset   = 0x00B8
	uDwCRCFull    = 0x01E8
	uBLockSem     = 0x0208
)

// root<ulonglong> field offsets, relative to the start of the root struct.
const (
	uRootFileEOF   = 0x08
	uRootAMapLast  = 0x10
	uRootAMapFree  = 0x18
	uRootPMapFree  = 0x20
	uRootNBTRef    = 0x28 // bref: bid(8) ib(8)
	uRootBBTRef    = 0x38
	uRootAMapValid = 0x48
	uRootARCount   = 0x4A
)

func decodeUnicodeHeader(b []byte, ver uint16) (Header, error) {
	if err := verifyCRC(b, offCRCPartial, offMagicClient, uBLockSem, Unicode); err != nil {
		return Header{}, err
	}
	if err := verifyCRC(b, uDwCRCFull, offMagicClient, uDwCRCFull, Unicode); err != nil {
		return Header{}, err
	}

	root := b[uRootOffset:]
	h := Header{
		Width:       Unicode,
		VerClient:   buf.U16LE(b[uVerClient:]),
		CryptMethod: CryptMethod(b[uCryptMethod]),
		Root: Root{
			FileEOF:      buf.U64LE(root[uRootFileEOF:]),
			AMapLast:     buf.U64LE(root[uRootAMapLast:]),
			AMapFree:     buf.U64LE(root[uRootAMapFree:]),
			PMapFree:     buf.U64LE(root[uRootPMapFree:]),
			NBTRootBID:   buf.U64LE(root[uRootNBTRef:]),
			NBTRootIB:    buf.U64LE(root[uRootNBTRef+8:]),
			BBTRootBID:   buf.U64LE(root[uRootBBTRef:]),
			BBTRootIB:    buf.U64LE(root[uRootBBTRef+8:]),
			AMapValid:    root[uRootAMapValid],
			ARVecARCount: root[uRootARCount],
		},
	}
	_ = ver
	return h, nil
}

// ANSI header field offsets (32-bit store, wVer < 20).
const (
	aVerClient   = offVerClient
	aCryptMethod = 0x01CC
	aRootOffset  = 0x00A4
	aBLockSem    = 0x01D2
)

const (
	aRootFileEOF   = 0x04
	aRootAMapLast  = 0x08
	aRootAMapFree  = 0x0C
	aRootPMapFree  = 0x10
	aRootNBTRef    = 0x14 // bref: bid(4) ib(4)
	aRootBBTRef    = 0x1C
	aRootAMapValid = 0x24
)

func decodeANSIHeader(b []byte, ver uint16) (Header, error) {
	if err := verifyCRC(b, offCRCPartial, offMagicClient, aBLockSem, ANSI); err != nil {
		return Header{}, err
	}

	root := b[aRootOffset:]
	h := Header{
		Width:       ANSI,
		VerClient:   buf.U16LE(b[aVerClient:]),
		CryptMethod: CryptMethod(b[aCryptMethod]),
		Root: Root{
			FileEOF:    uint64(buf.U32LE(root[aRootFileEOF:])),
			AMapLast:   uint64(buf.U32LE(root[aRootAMapLast:])),
			AMapFree:   uint64(buf.U32LE(root[aRootAMapFree:])),
			PMapFree:   uint64(buf.U32LE(root[aRootPMapFree:])),
			NBTRootBID: uint64(buf.U32LE(root[aRootNBTRef:])),
			NBTRootIB:  uint64(buf.U32LE(root[aRootNBTRef+4:])),
			BBTRootBID: uint64(buf.U32LE(root[aRootBBTRef:])),
			BBTRootIB:  uint64(buf.U32LE(root[aRootBBTRef+4:])),
			AMapValid:  root[aRootAMapValid],
		},
	}
	_ = ver
	return h, nil
}

// verifyCRC recomputes the CRC over b[dataStart:dataEnd] and compares it
// with the value stored at crcOffset.
func verifyCRC(b []byte, crcOffset, dataStart, dataEnd int, w Width) error {
	if dataEnd > len(b) || dataStart > dataEnd {
		return xerrors.New(xerrors.KindInvalidFormat, "header crc range out of bounds")
	}
	want := buf.U32LE(b[crcOffset:])
	got := crcobf.CRC32(b[dataStart:dataEnd])
	if want != got {
		return xerrors.Wrap(xerrors.KindCRCFail, fmt.Errorf("want 0x%08x got 0x%08x", want, got), "header crc (%s)", w)
	}
	return nil
}

func (w Width) String() string {
	if w == ANSI {
		return "ansi"
	}
	return "unicode"
}
