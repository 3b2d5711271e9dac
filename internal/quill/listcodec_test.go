package quill

import "testing"

func TestDictKeepsOrder(t *testing.T) {
	d, ok := parseDict("b:2/a:1/c:")
	if !ok {
		t.Fatal("Expected a valid dict")
	}
	if d.index("a") != 1 || d.index("c") != 2 || d.index("z") != -1 {
		t.Errorf("Unexpected index lookups on %v", d)
	}
	if d.String() != "b:2/a:1/c:" {
		t.Errorf("Round trip changed the dict: %q", d.String())
	}
	if _, ok := parseDict("novalue/a:1"); ok {
		t.Error("A pair without ':' must be rejected")
	}
}

func TestEmptyEncodings(t *testing.T) {
	if n := len(splitList("")); n != 0 {
		t.Errorf("Empty list should have no items, got %d", n)
	}
	if n := len(splitGrid("")); n != 0 {
		t.Errorf("Empty grid should have no rows, got %d", n)
	}
	if got := EncodeDict([]string{"torch", "key"}, map[string]string{"torch": "1", "key": "2"}); got != "torch:1/key:2" {
		t.Errorf("Unexpected dict encoding %q", got)
	}
}
