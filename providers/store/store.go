// Package store provides the small abstracted backing-store seam spec
// §4.5 describes for the hierarchical database-backed providers; of
// those, only LOINC builds on it: "a factory loads lookup tables ... into
// immutable shared structures". Table is an in-memory, sorted-by-integer-
// key table with binary-search lookup; a production deployment would
// swap this for a real SQL or bbolt-backed connection without changing
// any provider logic, mirroring the teacher's own terminology.Store/
// db.Service seam.
package store

import "sort"

// Table is an immutable, integer-key-sorted lookup table built once at
// factory-load time and shared read-only across every provider instance
// (spec §5 "Factories own immutable shared data").
type Table[V any] struct {
	keys   []int64
	values []V
}

// NewTable builds a Table from keys/values of equal length, sorting both
// by key so Get can binary-search.
func NewTable[V any](keys []int64, values []V) *Table[V] {
	n := len(keys)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return keys[idx[i]] < keys[idx[j]] })
	t := &Table[V]{keys: make([]int64, n), values: make([]V, n)}
	for i, j := range idx {
		t.keys[i] = keys[j]
		t.values[i] = values[j]
	}
	return t
}

// Get performs an O(log n) binary search for key.
func (t *Table[V]) Get(key int64) (V, bool) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i] >= key })
	if i < len(t.keys) && t.keys[i] == key {
		return t.values[i], true
	}
	var zero V
	return zero, false
}

// Len reports the number of entries.
func (t *Table[V]) Len() int { return len(t.keys) }

// All returns keys in ascending order, the table's natural iteration
// order per spec §5 "Ordering guarantees" ("LOINC/NDC/CPT by integer key
// ascending").
func (t *Table[V]) All() []int64 {
	out := make([]int64, len(t.keys))
	copy(out, t.keys)
	return out
}

// Value returns the value stored at key, assuming a prior successful Get;
// used by callers iterating t.All().
func (t *Table[V]) Value(key int64) (V, bool) { return t.Get(key) }
