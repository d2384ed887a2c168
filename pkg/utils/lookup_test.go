package utils

import "testing"

func TestPairedLookup(t *testing.T) {
	keys := []string{"revoke", "icon"}
	vals := []int{1, 2}
	v, ok := PairedLookup("icon", keys, vals)
	if !ok || v != 2 {
		t.Fatalf("PairedLookup = %d, %v", v, ok)
	}
	if _, ok := PairedLookup("absent", keys, vals); ok {
		t.Fatalf("found a key that is not present")
	}
}

func TestPairedLookupPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("length mismatch did not panic")
		}
	}()
	PairedLookup("x", []string{"a", "b"}, []int{1})
}
