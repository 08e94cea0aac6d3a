package ltp

import (
	"testing"

	"github.com/emk/pstsdk/internal/buf"
	"github.com/emk/pstsdk/internal/format"
)

// buildBTHPage lays out a single-page heap holding a 2-level-0 BTH: header
// at heap id 32, a 3-entry leaf array (2-byte key, 4-byte value) at heap id
// 64.
func buildBTHPage() []byte {
	page := make([]byte, 44)
	buf.PutU16LE(page[0:], 34) // page_map_offset
	page[2] = format.HeapSignature
	page[3] = byte(format.ClientSigBTH)
	buf.PutU32LE(page[4:], 32) // root id: the bth header allocation

	// alloc0 [8:16): bth header
	page[8] = byte(format.ClientSigBTH)
	page[9] = 2  // key size
	page[10] = 4 // entry size
	page[11] = 0 // num levels: leaf is the root
	buf.PutU32LE(page[12:], 64)

	// alloc1 [16:34): 3 leaf entries of key(2)+value(4)
	buf.PutU16LE(page[16:], 1)
	buf.PutU32LE(page[18:], 100)
	buf.PutU16LE(page[22:], 5)
	buf.PutU32LE(page[24:], 500)
	buf.PutU16LE(page[28:], 9)
	buf.PutU32LE(page[30:], 900)

	buf.PutU16LE(page[34:], 2) // num_allocs
	buf.PutU16LE(page[36:], 0) // num_frees
	buf.PutU16LE(page[38:], 8)
	buf.PutU16LE(page[40:], 16)
	buf.PutU16LE(page[42:], 34)
	return page
}

func TestBTHLookup(t *testing.T) {
	h, err := newHeapFromPages(nil, [][]byte{buildBTHPage()})
	if err != nil {
		t.Fatalf("newHeapFromPages: %v", err)
	}
	bth, err := OpenBTH(h, h.RootID())
	if err != nil {
		t.Fatalf("OpenBTH: %v", err)
	}
	if bth.KeySize() != 2 || bth.EntrySize() != 4 {
		t.Fatalf("KeySize/EntrySize = %d/%d", bth.KeySize(), bth.EntrySize())
	}

	v, err := bth.Lookup(5)
	if err != nil {
		t.Fatalf("Lookup(5): %v", err)
	}
	if got := buf.U32LE(v); got != 500 {
		t.Fatalf("Lookup(5) = %d, want 500", got)
	}

	if _, err := bth.Lookup(7); err == nil {
		t.Fatalf("expected not-found error for key 7")
	}
}

func TestBTHIterate(t *testing.T) {
	h, err := newHeapFromPages(nil, [][]byte{buildBTHPage()})
	if err != nil {
		t.Fatalf("newHeapFromPages: %v", err)
	}
	bth, err := OpenBTH(h, h.RootID())
	if err != nil {
		t.Fatalf("OpenBTH: %v", err)
	}
	it, err := bth.Iterate()
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	var keys []uint64
	for it.Valid() {
		keys = append(keys, it.Key())
		if err := it.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	want := []uint64{1, 5, 9}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys[%d] = %d, want %d", i, keys[i], k)
		}
	}
}
