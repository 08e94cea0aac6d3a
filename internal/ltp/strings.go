package ltp

import "golang.org/x/text/encoding/unicode"

// decodeUTF16LE turns a UTF-16LE byte string into a Go string. This is the
// "raw decoding from bytes to UTF-16" the wide string property types get;
// it performs no codepage translation, only endianness and surrogate-pair
// handling, tolerant of a stray BOM or unpaired surrogate the way a
// hand-rolled unicode/utf16 loop would not be.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	if len(b) >= 2 && b[len(b)-2] == 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-2]
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		// IgnoreBOM mode never rejects malformed input.
		return string(b)
	}
	return string(decoded)
}
