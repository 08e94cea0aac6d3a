package pst

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// Attachment wraps a property bag built from a sub-node of a message's
// attachment table, per spec §4.12.
type Attachment struct {
	node *ndb.Node
	bag  *ltp.PropertyContext
}

func newAttachment(messageNode *ndb.Node, rowID uint32) (*Attachment, error) {
	n, err := messageNode.Lookup(rowID)
	if err != nil {
		return nil, err
	}
	bag, err := ltp.OpenPropertyContext(n)
	if err != nil {
		return nil, err
	}
	return &Attachment{node: n, bag: bag}, nil
}

// PropertyBag returns the attachment's underlying property bag.
func (a *Attachment) PropertyBag() *ltp.PropertyContext { return a.bag }

// Filename returns the attachment's long filename, falling back to its
// short filename when the long form isn't present.
func (a *Attachment) Filename() (string, error) {
	s, err := readDisplayString(a.bag, propAttachLongFilename)
	if err == nil {
		return s, nil
	}
	if !isNotFound(err) {
		return "", err
	}
	return readDisplayString(a.bag, propAttachFilename)
}

// Content returns the attachment's raw content bytes.
func (a *Attachment) Content() ([]byte, error) { return a.bag.ReadBytes(propAttachData) }

// Size returns the attachment's reported size in bytes.
func (a *Attachment) Size() (uint64, error) { return a.bag.ReadUint(propAttachSize) }

// IsMessage reports whether this attachment's content is itself an
// embedded message rather than raw bytes.
func (a *Attachment) IsMessage() (bool, error) {
	v, err := a.bag.ReadUint(propAttachMethod)
	if err != nil {
		return false, err
	}
	return v == attachMethodEmbeddedMessage, nil
}

// OpenAsMessage decodes the attachment's content as a sub_object struct
// naming a nested message within the attachment node's own sub-node tree,
// and opens it.
func (a *Attachment) OpenAsMessage() (*Message, error) {
	ok, err := a.IsMessage()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, xerrors.New(xerrors.KindDatabaseCorrupt, "attachment is not an embedded message")
	}
	content, err := a.Content()
	if err != nil {
		return nil, err
	}
	sub, err := format.DecodeSubObject(content)
	if err != nil {
		return nil, err
	}
	n, err := a.node.Lookup(sub.NID)
	if err != nil {
		return nil, err
	}
	return newMessage(n)
}
