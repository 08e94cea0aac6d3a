// Package pst implements the read-only object model sitting on top of the
// NDB/LTP/nameid layers: a store's folders, messages, attachments and
// recipients, per spec §4.12/§4.13.
package pst

import (
	"github.com/emk/pstsdk/internal/btree"
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
	"github.com/emk/pstsdk/internal/nameid"
	"github.com/emk/pstsdk/internal/ndb"
)

// Store is an opened PST/OST file: the underlying database handle, the
// message store's own property bag (lazily opened), and the named-property
// map (lazily opened, since most callers never touch a named property).
type Store struct {
	db    *ndb.DB
	bag   *ltp.PropertyContext
	names *nameid.Map
}

// Open opens path as a PST/OST file, validating its header and leaving
// every deeper structure to be resolved lazily. The ANSI-vs-Unicode
// dispatch that the file's own header encodes is handled inside
// internal/ndb; this layer never needs to branch on store width itself.
func Open(path string) (*Store, error) {
	db, err := ndb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the store's backing file mapping. The store and every
// facade derived from it must not be used afterward.
func (s *Store) Close() error { return s.db.Close() }

// propertyBag lazily opens the message store node's property bag.
func (s *Store) propertyBag() (*ltp.PropertyContext, error) {
	if s.bag == nil {
		n, err := s.db.OpenNode(format.NIDMessageStore)
		if err != nil {
			return nil, err
		}
		bag, err := ltp.OpenPropertyContext(n)
		if err != nil {
			return nil, err
		}
		s.bag = bag
	}
	return s.bag, nil
}

// NamedProperties lazily opens the store's named-property map.
func (s *Store) NamedProperties() (*nameid.Map, error) {
	if s.names == nil {
		n, err := s.db.OpenNode(format.NIDNameIDMap)
		if err != nil {
			return nil, err
		}
		m, err := nameid.Open(n)
		if err != nil {
			return nil, err
		}
		s.names = m
	}
	return s.names, nil
}

// Name returns the store's display name.
func (s *Store) Name() (string, error) {
	bag, err := s.propertyBag()
	if err != nil {
		return "", err
	}
	return readDisplayString(bag, propDisplayName)
}

// RootFolder opens the store's root folder.
func (s *Store) RootFolder() (*Folder, error) {
	n, err := s.db.OpenNode(format.NIDRootFolder)
	if err != nil {
		return nil, err
	}
	return newFolder(s, n)
}

// OpenFolder scans every folder node in the store and returns the one
// whose display name matches exactly, per spec §4.13.
func (s *Store) OpenFolder(name string) (*Folder, error) {
	folders, err := s.Folders()
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		fname, err := f.Name()
		if err != nil {
			return nil, err
		}
		if fname == name {
			return f, nil
		}
	}
	return nil, errFolderNotFound(name)
}

// nbtIterate walks the whole store's Node B+ tree in key order, calling fn
// for every leaf entry, stopping early if fn returns an error.
func (s *Store) nbtIterate(fn func(format.NBTLeafEntry) error) error {
	root, err := s.db.NBTRoot()
	if err != nil {
		return err
	}
	it, err := btree.NewIterator(root)
	if err != nil {
		return err
	}
	for it.Valid() {
		if err := fn(it.Value().(format.NBTLeafEntry)); err != nil {
			return err
		}
		if err := it.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Folders enumerates every folder (and search-folder) node in the store,
// matching the original's whole-store folder_begin/folder_end filter over
// the NBT rather than a hierarchy walk from the root.
func (s *Store) Folders() ([]*Folder, error) {
	var folders []*Folder
	err := s.nbtIterate(func(e format.NBTLeafEntry) error {
		t := format.NIDTypeOf(e.NID)
		if t != format.NIDTypeFolder && t != format.NIDTypeSearchFolder {
			return nil
		}
		n, err := s.db.OpenNode(e.NID)
		if err != nil {
			return err
		}
		f, err := newFolder(s, n)
		if err != nil {
			return err
		}
		folders = append(folders, f)
		return nil
	})
	return folders, err
}

// Messages enumerates every message node in the store, regardless of which
// folder's contents table references it.
func (s *Store) Messages() ([]*Message, error) {
	var messages []*Message
	err := s.nbtIterate(func(e format.NBTLeafEntry) error {
		if format.NIDTypeOf(e.NID) != format.NIDTypeMessage {
			return nil
		}
		n, err := s.db.OpenNode(e.NID)
		if err != nil {
			return err
		}
		m, err := newMessage(n)
		if err != nil {
			return err
		}
		messages = append(messages, m)
		return nil
	})
	return messages, err
}
