package utils

// PairedLookup finds key in keys and returns the value at the same index.
// keys and vals are parallel slices; a length mismatch is a programming
// error and panics.
func PairedLookup[K comparable, V any](key K, keys []K, vals []V) (V, bool) {
	if len(keys) != len(vals) {
		panic("utils: paired lookup slices differ in length")
	}
	for i, k := range keys {
		if k == key {
			return vals[i], true
		}
	}
	var zero V
	return zero, false
}
