// Package ndb implements the Node Database layer: opening a PST/OST file,
// validating its header, reading pages and blocks, walking the NBT and BBT,
// and presenting a node's data as a single logical byte stream regardless
// of how many external/extended blocks back it. This is the layer the LTP
// package builds property bags and tables on top of.
package ndb

import (
	"github.com/emk/pstsdk/internal/crcobf"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/mmfile"
	"github.com/emk/pstsdk/internal/xerrors"
)

// DB is an open handle to a PST/OST file. It owns the memory mapping for
// the file's lifetime and exposes the two top-level B+ trees.
type DB struct {
	data    []byte
	cleanup func() error
	header  format.Header
}

// Open memory-maps the file at path, validates its header, and returns a
// handle ready for node and block lookups. The returned DB must be closed
// once the caller is done with every facade built on it.
func Open(path string) (*DB, error) {
	data, cleanup, err := mmfile.Map(path)
	if err != nil {
		return nil, err
	}
	h, err := format.DecodeHeader(data)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	return &DB{data: data, cleanup: cleanup, header: h}, nil
}

// Close unmaps the backing file. The DB and every facade derived from it
// must not be used afterward.
func (db *DB) Close() error {
	if db.cleanup == nil {
		return nil
	}
	err := db.cleanup()
	db.cleanup = nil
	return err
}

// Width reports whether this store is the 32-bit ANSI or 64-bit Unicode
// on-disk variant.
func (db *DB) Width() format.Width { return db.header.Width }

// CryptMethod reports the obfuscation scheme protecting external block
// data in this store.
func (db *DB) CryptMethod() format.CryptMethod { return db.header.CryptMethod }

// NBTRoot returns the root page of the Node B+ tree.
func (db *DB) NBTRoot() (*btPage, error) {
	return db.readBTPage(db.header.Root.NBTRootBID, db.header.Root.NBTRootIB, treeNBT)
}

// BBTRoot returns the root page of the Block B+ tree.
func (db *DB) BBTRoot() (*btPage, error) {
	return db.readBTPage(db.header.Root.BBTRootBID, db.header.Root.BBTRootIB, treeBBT)
}

// LookupNode resolves a node id to its NBT leaf entry.
func (db *DB) LookupNode(nid uint32) (format.NBTLeafEntry, error) {
	root, err := db.NBTRoot()
	if err != nil {
		return format.NBTLeafEntry{}, err
	}
	v, err := lookupBT(root, uint64(nid))
	if err != nil {
		return format.NBTLeafEntry{}, xerrors.Wrap(xerrors.KindKeyNotFound, err, "node id 0x%x", nid)
	}
	return v.(format.NBTLeafEntry), nil
}

// LookupBlock resolves a block id to its BBT leaf entry (address, size,
// ref count).
func (db *DB) LookupBlock(bid uint64) (format.BBTLeafEntry, error) {
	root, err := db.BBTRoot()
	if err != nil {
		return format.BBTLeafEntry{}, err
	}
	v, err := lookupBT(root, bid)
	if err != nil {
		if _, ok := err.(*xerrors.NotFoundError); ok {
			return format.BBTLeafEntry{}, xerrors.NotFound(xerrors.KeyBlockID, bid)
		}
		return format.BBTLeafEntry{}, err
	}
	return v.(format.BBTLeafEntry), nil
}

// align64 rounds n up to the next 64-byte boundary, the block alignment
// used throughout the format.
func align64(n int) int {
	return (n + 63) &^ 63
}

// decrypt applies, in place, whatever obfuscation scheme this store's
// header names to the decoded payload of an external block.
func (db *DB) decrypt(data []byte, bid uint64) {
	switch db.header.CryptMethod {
	case format.CryptPermute:
		crcobf.Permute(data, false)
	case format.CryptCyclic:
		crcobf.Cyclic(data, bid)
	}
}
