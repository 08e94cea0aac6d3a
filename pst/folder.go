package pst

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
	"github.com/emk/pstsdk/internal/ndb"
)

// Folder wraps a node of type folder or search-folder: a property bag plus
// three sibling table nodes (hierarchy, contents, associated-contents)
// sharing the folder node's index but carrying their own node-id type, per
// spec §4.12.
type Folder struct {
	store *Store
	node  *ndb.Node
	bag   *ltp.PropertyContext

	hierarchy  *ltp.TableContext
	contents   *ltp.TableContext
	associated *ltp.TableContext
}

func newFolder(s *Store, n *ndb.Node) (*Folder, error) {
	bag, err := ltp.OpenPropertyContext(n)
	if err != nil {
		return nil, err
	}
	return &Folder{store: s, node: n, bag: bag}, nil
}

// PropertyBag returns the folder's underlying property bag, for callers
// that need a property this facade doesn't surface directly.
func (f *Folder) PropertyBag() *ltp.PropertyContext { return f.bag }

// Name returns the folder's display name.
func (f *Folder) Name() (string, error) { return readDisplayString(f.bag, propDisplayName) }

// MessageCount returns the folder's normal message count.
func (f *Folder) MessageCount() (uint64, error) { return f.bag.ReadUint(propContentCount) }

// SubfolderCount returns the folder's immediate subfolder count.
func (f *Folder) SubfolderCount() (uint64, error) { return f.bag.ReadUint(propSubfolderCount) }

// AssociatedMessageCount returns the folder's associated-content count.
func (f *Folder) AssociatedMessageCount() (uint64, error) {
	return f.bag.ReadUint(propAssocContentCount)
}

// siblingTable opens the sibling node sharing this folder's nid index but
// carrying nidType, and wraps it as a table context.
func (f *Folder) siblingTable(nidType format.NIDType) (*ltp.TableContext, error) {
	nid := format.MakeNID(nidType, format.NIDIndexOf(f.node.NID))
	n, err := f.store.db.OpenNode(nid)
	if err != nil {
		return nil, err
	}
	return ltp.OpenTableContext(n)
}

func (f *Folder) hierarchyTable() (*ltp.TableContext, error) {
	if f.hierarchy == nil {
		t, err := f.siblingTable(format.NIDTypeHierarchyTable)
		if err != nil {
			return nil, err
		}
		f.hierarchy = t
	}
	return f.hierarchy, nil
}

func (f *Folder) contentsTable() (*ltp.TableContext, error) {
	if f.contents == nil {
		t, err := f.siblingTable(format.NIDTypeContentsTable)
		if err != nil {
			return nil, err
		}
		f.contents = t
	}
	return f.contents, nil
}

func (f *Folder) associatedContentsTable() (*ltp.TableContext, error) {
	if f.associated == nil {
		t, err := f.siblingTable(format.NIDTypeAssociatedContentsTable)
		if err != nil {
			return nil, err
		}
		f.associated = t
	}
	return f.associated, nil
}

// SubFolders returns the folder's immediate subfolders (both plain and
// search folders), per the hierarchy table's row ids.
func (f *Folder) SubFolders() ([]*Folder, error) {
	t, err := f.hierarchyTable()
	if err != nil {
		return nil, err
	}
	var out []*Folder
	for pos := 0; pos < t.NumRows(); pos++ {
		rowID, err := t.RowID(pos)
		if err != nil {
			return nil, err
		}
		ty := format.NIDTypeOf(rowID)
		if ty != format.NIDTypeFolder && ty != format.NIDTypeSearchFolder {
			continue
		}
		n, err := f.store.db.OpenNode(rowID)
		if err != nil {
			return nil, err
		}
		sub, err := newFolder(f.store, n)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// OpenSubFolder returns the immediate subfolder with the given display
// name, matched by exact case-sensitive equality.
func (f *Folder) OpenSubFolder(name string) (*Folder, error) {
	subs, err := f.SubFolders()
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		subName, err := sub.Name()
		if err != nil {
			return nil, err
		}
		if subName == name {
			return sub, nil
		}
	}
	return nil, errFolderNotFound(name)
}

// messagesFromTable resolves every row of a contents-shaped table to a
// Message, shared by Messages and AssociatedMessages.
func (f *Folder) messagesFromTable(t *ltp.TableContext) ([]*Message, error) {
	var out []*Message
	for pos := 0; pos < t.NumRows(); pos++ {
		rowID, err := t.RowID(pos)
		if err != nil {
			return nil, err
		}
		n, err := f.store.db.OpenNode(rowID)
		if err != nil {
			return nil, err
		}
		m, err := newMessage(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Messages returns the folder's normal contents.
func (f *Folder) Messages() ([]*Message, error) {
	t, err := f.contentsTable()
	if err != nil {
		return nil, err
	}
	return f.messagesFromTable(t)
}

// AssociatedMessages returns the folder's associated contents (rules,
// views, and other hidden per-folder configuration items).
func (f *Folder) AssociatedMessages() ([]*Message, error) {
	t, err := f.associatedContentsTable()
	if err != nil {
		return nil, err
	}
	return f.messagesFromTable(t)
}
