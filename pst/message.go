package pst

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
	"github.com/emk/pstsdk/internal/ndb"
	"github.com/emk/pstsdk/internal/xerrors"
)

// Message wraps a node of type message: a property bag plus its
// attachment and recipient tables, stored as well-known sub-nodes of the
// message node rather than sibling NBT entries, per spec §4.12.
type Message struct {
	node *ndb.Node
	bag  *ltp.PropertyContext

	attachments *ltp.TableContext
	recipients  *ltp.TableContext
}

func newMessage(n *ndb.Node) (*Message, error) {
	bag, err := ltp.OpenPropertyContext(n)
	if err != nil {
		return nil, err
	}
	return &Message{node: n, bag: bag}, nil
}

// PropertyBag returns the message's underlying property bag.
func (m *Message) PropertyBag() *ltp.PropertyContext { return m.bag }

// Subject returns the message's subject, with the two-character
// prefix-marker stripped when the first character is the subject-prefix
// lead byte (e.g. a folded "RE: ").
func (m *Message) Subject() (string, error) {
	s, err := readDisplayString(m.bag, propSubject)
	if err != nil {
		return "", err
	}
	return stripSubjectPrefix(s), nil
}

// stripSubjectPrefix drops the two-character prefix marker PR_SUBJECT
// carries when a subject was folded with a prefix (e.g. "RE: ", "FW: "):
// a lead byte identifying the marker followed by the separating character.
func stripSubjectPrefix(s string) string {
	r := []rune(s)
	if len(r) >= 2 && r[0] == format.MessageSubjectPrefixLeadByte {
		return string(r[2:])
	}
	return s
}

// Body returns the message's plain-text body.
func (m *Message) Body() (string, error) { return readDisplayString(m.bag, propBody) }

// HTMLBody returns the message's HTML body.
func (m *Message) HTMLBody() (string, error) { return readDisplayString(m.bag, propBodyHTML) }

// Size returns the message's reported size in bytes.
func (m *Message) Size() (uint64, error) { return m.bag.ReadUint(propMessageSize) }

// attachmentTable lazily opens the message's attachment table, held as the
// sub-node identified by the well-known nid_attachment_table id.
func (m *Message) attachmentTable() (*ltp.TableContext, error) {
	if m.attachments == nil {
		sub, err := m.node.Lookup(format.NIDAttachmentTable)
		if err != nil {
			return nil, err
		}
		t, err := ltp.OpenTableContext(sub)
		if err != nil {
			return nil, err
		}
		m.attachments = t
	}
	return m.attachments, nil
}

// recipientTable lazily opens the message's recipient table, held as the
// sub-node identified by the well-known nid_recipient_table id.
func (m *Message) recipientTable() (*ltp.TableContext, error) {
	if m.recipients == nil {
		sub, err := m.node.Lookup(format.NIDRecipientTable)
		if err != nil {
			return nil, err
		}
		t, err := ltp.OpenTableContext(sub)
		if err != nil {
			return nil, err
		}
		m.recipients = t
	}
	return m.recipients, nil
}

// AttachmentCount returns the message's attachment count, or 0 if the
// message carries no attachment table at all.
func (m *Message) AttachmentCount() (int, error) {
	t, err := m.attachmentTable()
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return t.NumRows(), nil
}

// RecipientCount returns the message's recipient count, or 0 if the
// message carries no recipient table at all.
func (m *Message) RecipientCount() (int, error) {
	t, err := m.recipientTable()
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return t.NumRows(), nil
}

// Attachments returns every attachment of the message, or nil if it
// carries no attachment table.
func (m *Message) Attachments() ([]*Attachment, error) {
	t, err := m.attachmentTable()
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []*Attachment
	for pos := 0; pos < t.NumRows(); pos++ {
		rowID, err := t.RowID(pos)
		if err != nil {
			return nil, err
		}
		a, err := newAttachment(m.node, rowID)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Recipients returns every recipient row of the message, or nil if it
// carries no recipient table.
func (m *Message) Recipients() ([]Recipient, error) {
	t, err := m.recipientTable()
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Recipient, t.NumRows())
	for pos := range out {
		out[pos] = Recipient{table: t, pos: pos}
	}
	return out, nil
}

// isNotFound reports whether err is the not-found error a missing
// attachment/recipient sub-node or property resolves to.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*xerrors.NotFoundError)
	if ok {
		return true
	}
	e, ok := err.(*xerrors.Error)
	return ok && e.Kind == xerrors.KindKeyNotFound
}
