package btree

import "testing"

// fakeLeaf and fakeNonLeaf build a small in-memory two-level tree for
// exercising Lookup and Iterator without any on-disk structure:
//
//	root (non-leaf): keys [10, 30] -> children [leafA, leafB]
//	leafA: (10,"a") (15,"b") (20,"c")
//	leafB: (30,"d") (35,"e")
type fakeLeaf struct {
	keys []uint64
	vals []string
}

func (l *fakeLeaf) NumValues() int            { return len(l.keys) }
func (l *fakeLeaf) Key(i int) uint64          { return l.keys[i] }
func (l *fakeLeaf) IsLeaf() bool              { return true }
func (l *fakeLeaf) Value(i int) any           { return l.vals[i] }
func (l *fakeLeaf) Child(i int) (Node, error) { panic("leaf has no children") }

type fakeNonLeaf struct {
	keys     []uint64
	children []Node
}

func (n *fakeNonLeaf) NumValues() int    { return len(n.keys) }
func (n *fakeNonLeaf) Key(i int) uint64  { return n.keys[i] }
func (n *fakeNonLeaf) IsLeaf() bool      { return false }
func (n *fakeNonLeaf) Value(i int) any   { panic("nonleaf has no values") }
func (n *fakeNonLeaf) Child(i int) (Node, error) {
	return n.children[i], nil
}

func buildTestTree() Node {
	leafA := &fakeLeaf{keys: []uint64{10, 15, 20}, vals: []string{"a", "b", "c"}}
	leafB := &fakeLeaf{keys: []uint64{30, 35}, vals: []string{"d", "e"}}
	return &fakeNonLeaf{keys: []uint64{10, 30}, children: []Node{leafA, leafB}}
}

func TestLookupFound(t *testing.T) {
	root := buildTestTree()
	cases := map[uint64]string{10: "a", 15: "b", 20: "c", 30: "d", 35: "e"}
	for k, want := range cases {
		got, err := Lookup(root, k)
		if err != nil {
			t.Fatalf("Lookup(%d): %v", k, err)
		}
		if got != want {
			t.Fatalf("Lookup(%d) = %v, want %v", k, got, want)
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	root := buildTestTree()
	for _, k := range []uint64{0, 11, 5, 100} {
		if _, err := Lookup(root, k); err == nil {
			t.Fatalf("Lookup(%d) should fail", k)
		}
	}
}

func TestIteratorForward(t *testing.T) {
	root := buildTestTree()
	it, err := NewIterator(root)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	var got []string
	for it.Valid() {
		got = append(got, it.Value().(string))
		if err := it.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	want := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIteratorBackward(t *testing.T) {
	root := buildTestTree()
	it, err := NewIterator(root)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}

	// Advance to the last value ("e"): 4 Next() calls from "a".
	for i := 0; i < 4; i++ {
		if err := it.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if !it.Valid() || it.Value().(string) != "e" {
		t.Fatalf("expected to land on last value e, got valid=%v value=%v", it.Valid(), it.Value())
	}

	var got []string
	for it.Valid() {
		got = append(got, it.Value().(string))
		if err := it.Prev(); err != nil {
			t.Fatalf("Prev: %v", err)
		}
	}
	want := []string{"e", "d", "c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIteratorEmptyTree(t *testing.T) {
	leaf := &fakeLeaf{}
	it, err := NewIterator(leaf)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	if it.Valid() {
		t.Fatalf("empty tree iterator should be invalid")
	}
}
