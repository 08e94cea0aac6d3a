// Package xerrors defines the typed error taxonomy used across the ndb, ltp
// and nameid layers, and the pst object model built on top of them.
//
// Every fallible operation in this module returns one of these kinds (wrapped
// with context) rather than an ad-hoc string error, so callers can branch on
// Kind() instead of matching text.
package xerrors

import "fmt"

// Kind classifies an error into one of the categories a PST/OST reader can
// produce. See spec §7 for the full taxonomy this mirrors.
type Kind int

const (
	// KindInvalidFormat: header version/magic did not match the attempted width.
	KindInvalidFormat Kind = iota
	// KindCRCFail: a header/page/block CRC did not match the computed value.
	KindCRCFail
	// KindSigMismatch: a page/block signature, or a heap/BTH/TC client
	// signature byte, did not match what the structure being opened requires.
	KindSigMismatch
	// KindUnexpectedPage: a page of the wrong type sits where a specific
	// tree root was expected.
	KindUnexpectedPage
	// KindUnexpectedBlock: a block's type/level does not match what the
	// caller required (e.g. extended where external was expected).
	KindUnexpectedBlock
	// KindDatabaseCorrupt: an on-disk invariant was violated (bad row
	// offset, inconsistent MV TOC, heap index past num_allocs, ...).
	KindDatabaseCorrupt
	// KindKeyNotFound: a lookup in the NBT, BBT, a sub-node tree, a BTH, a
	// property bag, a table, or the named-property map came up empty.
	KindKeyNotFound
	// KindNotImplemented: a behavior documented as unimplemented upstream
	// (e.g. VT_DATE read when ambiguous, or an unsupported MV generation).
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFormat:
		return "invalid_format"
	case KindCRCFail:
		return "crc_fail"
	case KindSigMismatch:
		return "sig_mismatch"
	case KindUnexpectedPage:
		return "unexpected_page"
	case KindUnexpectedBlock:
		return "unexpected_block"
	case KindDatabaseCorrupt:
		return "database_corrupt"
	case KindKeyNotFound:
		return "key_not_found"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return fmt.Sprintf("unknown_kind(%d)", int(k))
	}
}

// Error is a typed error with an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, xerrors.KindCRCFail) work by comparing Kind values
// when the target is itself an *Error with no message (a bare kind sentinel).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Kind-only sentinels for use with errors.Is.
var (
	ErrInvalidFormat   = &Error{Kind: KindInvalidFormat}
	ErrCRCFail         = &Error{Kind: KindCRCFail}
	ErrSigMismatch     = &Error{Kind: KindSigMismatch}
	ErrUnexpectedPage  = &Error{Kind: KindUnexpectedPage}
	ErrUnexpectedBlock = &Error{Kind: KindUnexpectedBlock}
	ErrDatabaseCorrupt = &Error{Kind: KindDatabaseCorrupt}
	ErrKeyNotFound     = &Error{Kind: KindKeyNotFound}
	ErrNotImplemented  = &Error{Kind: KindNotImplemented}
)

// KeyKind discriminates which key space a KindKeyNotFound error refers to,
// matching "key_not_found<K>" in spec §7.
type KeyKind int

const (
	KeyNodeID KeyKind = iota
	KeyBlockID
	KeyPropID
	KeyNamedProp
	KeyGUID
	KeyRowID
)

func (k KeyKind) String() string {
	switch k {
	case KeyNodeID:
		return "node-id"
	case KeyBlockID:
		return "block-id"
	case KeyPropID:
		return "prop-id"
	case KeyNamedProp:
		return "named-prop"
	case KeyGUID:
		return "guid"
	case KeyRowID:
		return "row-id"
	default:
		return "unknown-key"
	}
}

// NotFoundError is the concrete shape of a KindKeyNotFound error: it names
// which key space the lookup failed in and the key value itself.
type NotFoundError struct {
	KeyKind KeyKind
	Key     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: key_not_found<%s>(%v)", KindKeyNotFound, e.KeyKind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrKeyNotFound }

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*Error)
	return ok && target.(*Error).Kind == KindKeyNotFound
}

// NotFound builds a NotFoundError for the given key space and key.
func NotFound(kk KeyKind, key any) *NotFoundError {
	return &NotFoundError{KeyKind: kk, Key: key}
}
