package format

import (
	"fmt"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/xerrors"
)

// BlockTrailer is the structure at the end of every data block, aligned to
// a 64-byte boundary. Unicode orders fields (cb, signature, crc, bid); ANSI
// orders them (cb, signature, bid, crc).
type BlockTrailer struct {
	CB        uint16
	Signature uint16
	CRC       uint32
	BID       uint64
}

// BlockTrailerSize returns the on-disk size of a block trailer.
func BlockTrailerSize(w Width) int {
	if w == ANSI {
		return 12
	}
	return 16
}

// DecodeBlockTrailer decodes the trailer at the tail of a raw block buffer
// (already rounded up to its 64-byte alignment) and verifies its CRC.
func DecodeBlockTrailer(block []byte, w Width) (BlockTrailer, error) {
	size := BlockTrailerSize(w)
	if len(block) < size {
		return BlockTrailer{}, xerrors.New(xerrors.KindInvalidFormat, "block too short for trailer")
	}
	t := block[len(block)-size:]

	bt := BlockTrailer{CB: buf.U16LE(t[0:])}
	if int(bt.CB) > len(block)-size {
		return BlockTrailer{}, xerrors.New(xerrors.KindDatabaseCorrupt, "block trailer cb %d exceeds block data", bt.CB)
	}

	if w == ANSI {
		bt.Signature = buf.U16LE(t[2:])
		bt.BID = uint64(buf.U32LE(t[4:]))
		bt.CRC = buf.U32LE(t[8:])
	} else {
		bt.Signature = buf.U16LE(t[2:])
		bt.CRC = buf.U32LE(t[4:])
		bt.BID = buf.U64LE(t[8:])
	}

	data := block[:bt.CB]
	if got := crcobf.CRC32(data); got != bt.CRC {
		return BlockTrailer{}, xerrors.Wrap(xerrors.KindCRCFail, fmt.Errorf("want 0x%08x got 0x%08x", bt.CRC, got), "block trailer crc")
	}
	return bt, nil
}

// VerifyBlockSignature checks a decoded block trailer's signature against the
// folded (bid xor file-offset) value; callers supply the block's absolute
// file offset since the trailer itself only carries the bid.
func VerifyBlockSignature(bt BlockTrailer, address uint64) error {
	want := crcobf.Signature(bt.BID, address)
	if want != bt.Signature {
		return xerrors.New(xerrors.KindSigMismatch, "block signature mismatch: want 0x%04x got 0x%04x", want, bt.Signature)
	}
	return nil
}

// BlockTypeOf classifies a block id by its internal bit and low type nibble,
// matching the disk::block_types enum used when the internal bit is set.
func BlockTypeOf(bid uint64, firstByte byte) BlockType {
	if bid&BlockIDInternalBit == 0 {
		return BlockExternal
	}
	return BlockType(firstByte)
}

// ExtendedBlock is the header of a level 1/2 "extended" block: an array of
// block ids forming the next level of a data block's fan-out tree.
type ExtendedBlock struct {
	Level     byte
	Count     uint16
	TotalSize uint32
	BIDs      []uint64
}

// ExtendedBlockMaxCount returns the maximum number of child block ids an
// extended block of the given width can hold in a single external block.
func ExtendedBlockMaxCount(w Width) int {
	return (8192 - BlockTrailerSize(w) - 8) / w.BlockIDSize()
}

// DecodeExtendedBlock decodes an extended block's header and child id array.
// b is the block's data payload (trailer already stripped by the caller).
func DecodeExtendedBlock(b []byte, w Width) (ExtendedBlock, error) {
	if len(b) < 8 {
		return ExtendedBlock{}, xerrors.New(xerrors.KindInvalidFormat, "extended block header truncated")
	}
	blockType := BlockType(b[0])
	if blockType != BlockExtended {
		return ExtendedBlock{}, xerrors.New(xerrors.KindUnexpectedBlock, "block_type %02x is not extended", b[0])
	}
	eb := ExtendedBlock{
		Level:     b[1],
		Count:     buf.U16LE(b[2:]),
		TotalSize: buf.U32LE(b[4:]),
	}
	n := w.BlockIDSize()
	need := 8 + int(eb.Count)*n
	if len(b) < need {
		return ExtendedBlock{}, xerrors.New(xerrors.KindInvalidFormat, "extended block ids truncated")
	}
	eb.BIDs = make([]uint64, eb.Count)
	for i := 0; i < int(eb.Count); i++ {
		off := 8 + i*n
		if w == ANSI {
			eb.BIDs[i] = uint64(buf.U32LE(b[off:]))
		} else {
			eb.BIDs[i] = buf.U64LE(b[off:])
		}
	}
	return eb, nil
}

// SubLeafEntry maps a sub-node id directly to its data (and optional
// sub-sub-node) block, for nodes whose sub-node tree fits in one block.
type SubLeafEntry struct {
	NID    uint32
	DataID uint64
	SubID  uint64
}

// SubLeafEntrySize returns the on-disk size of a sub-node leaf entry.
func SubLeafEntrySize(w Width) int {
	return w.BlockIDSize() * 3
}

// DecodeSubLeafEntry decodes one sub-node leaf entry.
func DecodeSubLeafEntry(b []byte, w Width) (SubLeafEntry, error) {
	n := w.BlockIDSize()
	if len(b) < 3*n {
		return SubLeafEntry{}, xerrors.New(xerrors.KindInvalidFormat, "sub leaf entry truncated")
	}
	if w == ANSI {
		return SubLeafEntry{
			NID:    buf.U32LE(b[0:]),
			DataID: uint64(buf.U32LE(b[n:])),
			SubID:  uint64(buf.U32LE(b[2*n:])),
		}, nil
	}
	return SubLeafEntry{
		NID:    buf.U32LE(b[0:]),
		DataID: buf.U64LE(b[n:]),
		SubID:  buf.U64LE(b[2*n:]),
	}, nil
}

// SubNonLeafEntry points, for a range of sub-node ids starting at NIDKey, to
// the sub-node block that holds their leaf entries.
type SubNonLeafEntry struct {
	NIDKey uint32
	SubBID uint64
}

// SubNonLeafEntrySize returns the on-disk size of a sub-node non-leaf entry.
func SubNonLeafEntrySize(w Width) int {
	return w.BlockIDSize() * 2
}

// DecodeSubNonLeafEntry decodes one sub-node non-leaf entry.
func DecodeSubNonLeafEntry(b []byte, w Width) (SubNonLeafEntry, error) {
	n := w.BlockIDSize()
	if len(b) < 2*n {
		return SubNonLeafEntry{}, xerrors.New(xerrors.KindInvalidFormat, "sub nonleaf entry truncated")
	}
	if w == ANSI {
		return SubNonLeafEntry{
			NIDKey: buf.U32LE(b[0:]),
			SubBID: uint64(buf.U32LE(b[n:])),
		}, nil
	}
	return SubNonLeafEntry{
		NIDKey: buf.U32LE(b[0:]),
		SubBID: buf.U64LE(b[n:]),
	}, nil
}

// SubNodeBlockHeader is the common prefix of a sub-node block (leaf or
// non-leaf), distinguishing them by Level (0 = leaf).
type SubNodeBlockHeader struct {
	BlockType byte
	Level     byte
	Count     uint16
}

// DecodeSubNodeBlockHeader decodes the 4-byte header shared by leaf and
// non-leaf sub-node blocks.
func DecodeSubNodeBlockHeader(b []byte) (SubNodeBlockHeader, error) {
	if len(b) < 4 {
		return SubNodeBlockHeader{}, xerrors.New(xerrors.KindInvalidFormat, "sub node block header truncated")
	}
	return SubNodeBlockHeader{
		BlockType: b[0],
		Level:     b[1],
		Count:     buf.U16LE(b[2:]),
	}, nil
}
