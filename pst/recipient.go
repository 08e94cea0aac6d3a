package pst

import (
	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
)

// Recipient is a row of a message's recipient table, per spec §4.12.
type Recipient struct {
	table *ltp.TableContext
	pos   int
}

// Name returns the recipient's display name.
func (r Recipient) Name() (string, error) { return readDisplayCell(r.table, r.pos, propDisplayName) }

// Type returns whether the recipient is a to/cc/bcc entry.
func (r Recipient) Type() (format.RecipientType, error) {
	v, err := r.table.ReadUint(r.pos, propRecipientType)
	return format.RecipientType(v), err
}

// AddressType returns the recipient's address type (e.g. "SMTP", "EX").
func (r Recipient) AddressType() (string, error) {
	return readDisplayCell(r.table, r.pos, propAddressType)
}

// EmailAddress returns the recipient's email address.
func (r Recipient) EmailAddress() (string, error) {
	return readDisplayCell(r.table, r.pos, propEmailAddress)
}

// AccountName returns the recipient's account name.
func (r Recipient) AccountName() (string, error) {
	return readDisplayCell(r.table, r.pos, propAccountName)
}
