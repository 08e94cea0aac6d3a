package format

import (
	"fmt"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// PageTrailer is the last structure in every 512-byte page, width-normalized.
// On disk the Unicode layout orders fields (type, type_repeat, signature,
// crc, bid) while ANSI orders them (type, type_repeat, signature, bid, crc).
type PageTrailer struct {
	Type       PageType
	TypeRepeat PageType
	Signature  uint16
	CRC        uint32
	BID        uint64
}

// PageTrailerSize returns the on-disk size of a page trailer for the given
// width: 16 bytes for Unicode, 12 for ANSI.
func PageTrailerSize(w Width) int {
	if w == ANSI {
		return 12
	}
	return 16
}

// DecodePageTrailer decodes the trailer occupying the last PageTrailerSize(w)
// bytes of a page, and verifies its CRC against the leading page data.
func DecodePageTrailer(page []byte, w Width) (PageTrailer, error) {
	size := PageTrailerSize(w)
	if len(page) < size {
		return PageTrailer{}, xerrors.New(xerrors.KindInvalidFormat, "page too short for trailer (%d bytes)", len(page))
	}
	t := page[len(page)-size:]
	data := page[:len(page)-size]

	pt := PageTrailer{
		Type:       PageType(t[0]),
		TypeRepeat: PageType(t[1]),
	}
	if pt.Type != pt.TypeRepeat {
		return PageTrailer{}, xerrors.New(xerrors.KindUnexpectedPage, "page_type %02x != page_type_repeat %02x", t[0], t[1])
	}

	if w == ANSI {
		pt.Signature = buf.U16LE(t[2:])
		pt.BID = uint64(buf.U32LE(t[4:]))
		pt.CRC = buf.U32LE(t[8:])
	} else {
		pt.Signature = buf.U16LE(t[2:])
		pt.CRC = buf.U32LE(t[4:])
		pt.BID = buf.U64LE(t[8:])
	}

	gotCRC := crcobf.CRC32(data)
	if gotCRC != pt.CRC {
		return PageTrailer{}, xerrors.Wrap(xerrors.KindCRCFail, fmt.Errorf("want 0x%08x got 0x%08x", pt.CRC, gotCRC), "page trailer crc")
	}

	return pt, nil
}

// VerifyPageSignature checks a decoded trailer's signature against the
// folded (bid xor file-offset) value; callers supply the page's absolute
// file offset since the trailer itself only carries the bid.
func VerifyPageSignature(pt PageTrailer, fileOffset uint64) error {
	want := crcobf.Signature(pt.BID, fileOffset)
	if want != pt.Signature {
		return xerrors.New(xerrors.KindSigMismatch, "page signature mismatch: want 0x%04x got 0x%04x", want, pt.Signature)
	}
	return nil
}

// BTPageMeta is the 4-byte (cEnt, cEntMax, cbEnt, cLevel) footer common to
// every B+ tree page, sitting immediately before the trailer (and, on
// Unicode stores, a further 4 bytes of alignment padding).
type BTPageMeta struct {
	NumEntries    byte
	NumEntriesMax byte
	EntrySize     byte
	Level         byte
}

// btPageMetaSize is the fixed size of the meta footer itself.
const btPageMetaSize = 4

// btPagePadSize is the alignment padding inserted between the meta footer
// and the trailer on Unicode stores only (keeps the trailer's ulonglong
// fields 8-byte aligned).
func btPagePadSize(w Width) int {
	if w == ANSI {
		return 0
	}
	return 4
}

// BTPageEntriesRegion returns the number of leading bytes of a page
// available to the entries array, i.e. everything before the meta footer,
// padding and trailer.
func BTPageEntriesRegion(w Width) int {
	return PageSize - btPageMetaSize - btPagePadSize(w) - PageTrailerSize(w)
}

// DecodeBTPageMeta decodes the meta footer of a B+ tree page.
func DecodeBTPageMeta(page []byte, w Width) (BTPageMeta, error) {
	metaEnd := PageSize - btPagePadSize(w) - PageTrailerSize(w)
	metaStart := metaEnd - btPageMetaSize
	if metaStart < 0 || metaEnd > len(page) {
		return BTPageMeta{}, xerrors.New(xerrors.KindInvalidFormat, "bt page meta out of bounds")
	}
	m := page[metaStart:metaEnd]
	return BTPageMeta{
		NumEntries:    m[0],
		NumEntriesMax: m[1],
		EntrySize:     m[2],
		Level:         m[3],
	}, nil
}

// BTEntry is a non-leaf entry of either top-level B+ tree: a separator key
// paired with the reference to the child page that may contain it.
type BTEntry struct {
	Key      uint64
	ChildBID uint64
	ChildIB  uint64
}

// BTEntrySize returns the on-disk size of a non-leaf B+ tree entry.
func BTEntrySize(w Width) int {
	return 3 * w.BlockIDSize()
}

// DecodeBTEntry decodes one non-leaf B+ tree entry at the given width.
func DecodeBTEntry(b []byte, w Width) (BTEntry, error) {
	n := w.BlockIDSize()
	if len(b) < 3*n {
		return BTEntry{}, xerrors.New(xerrors.KindInvalidFormat, "bt entry truncated")
	}
	if w == ANSI {
		return BTEntry{
			Key:      uint64(buf.U32LE(b[0:])),
			ChildBID: uint64(buf.U32LE(b[n:])),
			ChildIB:  uint64(buf.U32LE(b[2*n:])),
		}, nil
	}
	return BTEntry{
		Key:      buf.U64LE(b[0:]),
		ChildBID: buf.U64LE(b[n:]),
		ChildIB:  buf.U64LE(b[2*n:]),
	}, nil
}

// NBTLeafEntry is a leaf entry of the Node B+ tree: the node id maps to the
// block holding its data, an optional sub-node block, and its parent nid
// (used by search folders).
type NBTLeafEntry struct {
	NID       uint32
	DataBID   uint64
	SubBID    uint64
	ParentNID uint32
}

// NBTLeafEntrySize returns the on-disk size of an NBT leaf entry.
func NBTLeafEntrySize(w Width) int {
	if w == ANSI {
		return 4 + 4 + 4 + 4
	}
	return 8 + 8 + 8 + 4 + 4 // nid padded to 8 on Unicode, trailed by two uint32 (parent, pad)
}

// DecodeNBTLeafEntry decodes one NBT leaf entry.
func DecodeNBTLeafEntry(b []byte, w Width) (NBTLeafEntry, error) {
	if len(b) < NBTLeafEntrySize(w) {
		return NBTLeafEntry{}, xerrors.New(xerrors.KindInvalidFormat, "nbt leaf entry truncated")
	}
	if w == ANSI {
		return NBTLeafEntry{
			NID:       buf.U32LE(b[0:]),
			DataBID:   uint64(buf.U32LE(b[4:])),
			SubBID:    uint64(buf.U32LE(b[8:])),
			ParentNID: buf.U32LE(b[12:]),
		}, nil
	}
	return NBTLeafEntry{
		NID:       buf.U32LE(b[0:]), // low 4 bytes of an 8-byte padded nid
		DataBID:   buf.U64LE(b[8:]),
		SubBID:    buf.U64LE(b[16:]),
		ParentNID: buf.U32LE(b[24:]),
	}, nil
}

// BBTLeafEntry is a leaf entry of the Block B+ tree: a block id maps to its
// on-disk reference, its logical size, and a reference count for sub-node
// sharing between nodes.
type BBTLeafEntry struct {
	BID      uint64
	IB       uint64
	Size     uint16
	RefCount uint16
}

// BBTLeafEntrySize returns the on-disk size of a BBT leaf entry.
func BBTLeafEntrySize(w Width) int {
	if w == ANSI {
		return 4 + 4 + 2 + 2
	}
	return 8 + 8 + 2 + 2
}

// DecodeBBTLeafEntry decodes one BBT leaf entry.
func DecodeBBTLeafEntry(b []byte, w Width) (BBTLeafEntry, error) {
	if len(b) < BBTLeafEntrySize(w) {
		return BBTLeafEntry{}, xerrors.New(xerrors.KindInvalidFormat, "bbt leaf entry truncated")
	}
	n := w.BlockIDSize()
	if w == ANSI {
		return BBTLeafEntry{
			BID:      uint64(buf.U32LE(b[0:])),
			IB:       uint64(buf.U32LE(b[n:])),
			Size:     buf.U16LE(b[2*n:]),
			RefCount: buf.U16LE(b[2*n+2:]),
		}, nil
	}
	return BBTLeafEntry{
		BID:      buf.U64LE(b[0:]),
		IB:       buf.U64LE(b[n:]),
		Size:     buf.U16LE(b[2*n:]),
		RefCount: buf.U16LE(b[2*n+2:]),
	}, nil
}
