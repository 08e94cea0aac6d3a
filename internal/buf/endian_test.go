package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U16LE(data); got != 0x2301 {
		t.Fatalf("U16LE = 0x%x, want 0x2301", got)
	}
	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}
	if got := I32LE(data); got != 0x67452301 {
		t.Fatalf("I32LE = 0x%x, want 0x67452301", got)
	}
	if got := I16LE(data); got != 0x2301 {
		t.Fatalf("I16LE = 0x%x, want 0x2301", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 || U32LE(short) != 0 || U64LE(short) != 0 || I32LE(short) != 0 || I16LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutRoundTrip(t *testing.T) {
	b16 := make([]byte, 2)
	PutU16LE(b16, 0xBEEF)
	if U16LE(b16) != 0xBEEF {
		t.Fatalf("u16 round trip failed")
	}

	b32 := make([]byte, 4)
	PutU32LE(b32, 0xDEADBEEF)
	if U32LE(b32) != 0xDEADBEEF {
		t.Fatalf("u32 round trip failed")
	}

	b64 := make([]byte, 8)
	PutU64LE(b64, 0x0102030405060708)
	if U64LE(b64) != 0x0102030405060708 {
		t.Fatalf("u64 round trip failed")
	}
}
