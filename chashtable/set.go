package chashtable

import "chashtable/core"

// Set is a concurrent hash set over comparable keys K.
type Set[K comparable] struct {
	t *core.Table[K, struct{}]
}

// NewSet constructs an empty Set. A nil opts uses core.DefaultOptions.
func NewSet[K comparable](opts *core.Options) *Set[K] {
	return &Set[K]{t: core.NewTableWithPolicy[K, struct{}](core.NewSetPolicy[K](), opts)}
}

// Add inserts key. Returns true if key was not already present.
func (s *Set[K]) Add(key K) bool {
	return s.t.Emplace(key, struct{}{})
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	return s.t.Contains(key)
}

// Remove removes key. Returns true if it was present.
func (s *Set[K]) Remove(key K) bool {
	return s.t.Erase(key)
}

// RemoveIf removes every key for which pred returns true. Returns the
// number removed.
func (s *Set[K]) RemoveIf(pred func(key K) bool) int {
	return s.t.EraseAllIf(func(key K, _ *struct{}) bool { return pred(key) })
}

// Range invokes f for every key currently stored.
func (s *Set[K]) Range(f func(key K)) {
	s.t.VisitAll(func(key K, _ *struct{}) { f(key) })
}

// Len returns the number of keys currently stored.
func (s *Set[K]) Len() int {
	return s.t.Size()
}

// Merge moves every key of other that s lacks into s, removing it from
// other. Keys already in s stay in other.
func (s *Set[K]) Merge(other *Set[K]) {
	s.t.Merge(other.t)
}
