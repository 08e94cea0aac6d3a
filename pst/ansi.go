package pst

import (
	"golang.org/x/text/encoding/charmap"

	"github.com/emk/pstsdk/internal/format"
	"github.com/emk/pstsdk/internal/ltp"
)

// decodeANSI converts a PT_STRING8 property's raw bytes from Windows-1252
// to UTF-8. This is the codepage translation spec §6 explicitly leaves to
// callers rather than the core decoder, grounded on the teacher's own
// ASCII-fast-path/charmap-slow-path split for VK record names.
func decodeANSI(b []byte) (string, error) {
	if isASCII(b) {
		return string(b), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// readDisplayString reads a bag property as a string, translating it from
// Windows-1252 when its type is PT_STRING8 rather than returning the raw
// narrow bytes internal/ltp.PropertyContext.ReadString passes through.
func readDisplayString(bag *ltp.PropertyContext, id uint16) (string, error) {
	t, err := bag.PropType(id)
	if err != nil {
		return "", err
	}
	if t != format.PTString8 {
		return bag.ReadString(id)
	}
	b, err := bag.ReadBytes(id)
	if err != nil {
		return "", err
	}
	return decodeANSI(b)
}

// readDisplayCell is readDisplayString's table-context counterpart, for
// properties read out of a table row rather than a property bag.
func readDisplayCell(t *ltp.TableContext, pos int, propID uint16) (string, error) {
	col, ok := t.ColumnFor(propID)
	if !ok {
		return "", xerrorsNotFoundProp(propID)
	}
	if col.Type != format.PTString8 {
		return t.ReadString(pos, propID)
	}
	b, err := t.VariableCell(pos, propID)
	if err != nil {
		return "", err
	}
	return decodeANSI(b)
}
