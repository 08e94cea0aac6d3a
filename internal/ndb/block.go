package ndb

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/xerrors"
)

// isInternalBID reports whether a block id refers to an extended or
// sub-node block rather than raw external data.
func isInternalBID(bid uint64) bool {
	return bid&format.BlockIDInternalBit != 0
}

// readRawBlock resolves bid through the BBT, reads its 64-byte-aligned
// on-disk region, and verifies its trailer. The returned slice is the raw
// payload (trailer stripped, still obfuscated for external blocks) and is a
// fresh copy so callers may decrypt or otherwise mutate it in place.
func (db *DB) readRawBlock(bid uint64) ([]byte, format.BlockTrailer, error) {
	bbt, err := db.LookupBlock(bid)
	if err != nil {
		return nil, format.BlockTrailer{}, err
	}

	trailerSize := format.BlockTrailerSize(db.Width())
	diskSize := align64(int(bbt.Size) + trailerSize)
	end := bbt.IB + uint64(diskSize)
	if end > uint64(len(db.data)) {
		return nil, format.BlockTrailer{}, xerrors.New(xerrors.KindInvalidFormat, "block 0x%x at 0x%x extends past end of file", bid, bbt.IB)
	}

	raw := db.data[bbt.IB:end]
	trailer, err := format.DecodeBlockTrailer(raw, db.Width())
	if err != nil {
		return nil, format.BlockTrailer{}, err
	}
	if trailer.BID != bid {
		return nil, format.BlockTrailer{}, xerrors.New(xerrors.KindUnexpectedBlock, "block at 0x%x has bid 0x%x, want 0x%x", bbt.IB, trailer.BID, bid)
	}
	if err := format.VerifyBlockSignature(trailer, bbt.IB); err != nil {
		return nil, format.BlockTrailer{}, err
	}

	payload := make([]byte, trailer.CB)
	copy(payload, raw[:trailer.CB])
	return payload, trailer, nil
}

// readExternalPayload reads and, per the store's crypt method, decrypts one
// external (leaf) block's data.
func (db *DB) readExternalPayload(bid uint64) ([]byte, error) {
	data, _, err := db.readRawBlock(bid)
	if err != nil {
		return nil, err
	}
	db.decrypt(data, bid)
	return data, nil
}

// ReadNodeData returns the full logical byte stream referenced by a data
// block id, recursively assembling it across any extended block fan-out.
// A bid of 0 (no data block assigned) returns a nil slice and no error.
func (db *DB) ReadNodeData(bid uint64) ([]byte, error) {
	pages, err := db.readNodePages(bid)
	if err != nil {
		return nil, err
	}
	if pages == nil {
		return nil, nil
	}
	var total int
	for _, p := range pages {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out, nil
}

// readNodePages returns the ordered list of external leaf payloads backing a
// data block id, without concatenating them — the heap-on-node layer
// addresses allocations by (page, offset) and needs these boundaries
// preserved rather than flattened into one stream.
func (db *DB) readNodePages(bid uint64) ([][]byte, error) {
	if bid == 0 {
		return nil, nil
	}
	if !isInternalBID(bid) {
		data, err := db.readExternalPayload(bid)
		if err != nil {
			return nil, err
		}
		return [][]byte{data}, nil
	}

	raw, _, err := db.readRawBlock(bid)
	if err != nil {
		return nil, err
	}
	eb, err := format.DecodeExtendedBlock(raw, db.Width())
	if err != nil {
		return nil, err
	}

	var pages [][]byte
	for _, childBID := range eb.BIDs {
		childPages, err := db.readNodePages(childBID)
		if err != nil {
			return nil, err
		}
		pages = append(pages, childPages...)
	}
	return pages, nil
}
