// Package chashtable is the user-facing wrapper that routes calls to
// the core engine: Map and Set are thin generic types over core.Table,
// carrying no logic of their own beyond picking a core.Policy and
// renaming core's operations to the vocabulary of a map or a set.
package chashtable

import "chashtable/core"

// Map is a concurrent hash map keyed by K with values V.
type Map[K comparable, V any] struct {
	t *core.Table[K, V]
}

// NewMap constructs an empty Map. A nil opts uses core.DefaultOptions.
func NewMap[K comparable, V any](opts *core.Options) *Map[K, V] {
	return &Map[K, V]{t: core.NewTableWithPolicy[K, V](core.NewMapPolicy[K, V](), opts)}
}

// Get returns the value stored for key and whether it was present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	var out V
	found := m.t.Visit(key, func(v *V) { out = *v })
	return out, found
}

// Visit invokes f with a pointer to key's value if present, under the
// table's internal lock. f must not call back into m.
func (m *Map[K, V]) Visit(key K, f func(*V)) bool {
	return m.t.Visit(key, f)
}

// Set inserts or updates key's value (emplace_or_visit): if key is
// absent, value is stored; if present, its value is overwritten.
func (m *Map[K, V]) Set(key K, value V) {
	m.t.EmplaceOrVisit(key, func() V { return value }, func(existing *V) { *existing = value })
}

// SetIfAbsent inserts value for key only if key is absent (try_emplace).
// Returns true if the insert happened.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	return m.t.Emplace(key, value)
}

// Delete removes key. Returns true if it was present.
func (m *Map[K, V]) Delete(key K) bool {
	return m.t.Erase(key)
}

// DeleteIf removes key if present and pred(value) returns true.
func (m *Map[K, V]) DeleteIf(key K, pred func(*V) bool) bool {
	return m.t.EraseIf(key, pred)
}

// Range invokes f for every key/value pair currently stored. f must
// not call back into m.
func (m *Map[K, V]) Range(f func(key K, value *V)) {
	m.t.VisitAll(f)
}

// Len returns the number of entries currently stored.
func (m *Map[K, V]) Len() int {
	return m.t.Size()
}

// Merge moves every entry of other whose key m lacks into m. Entries
// whose key is already in m stay in other, and m keeps its own value.
func (m *Map[K, V]) Merge(other *Map[K, V]) {
	m.t.Merge(other.t)
}
