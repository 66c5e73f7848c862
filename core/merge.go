package core

import "chashtable/logger"

// Merge moves every element of other into t: other is scanned under
// its own shared stripe, each element is read under its group's
// exclusive lock, and a successful insert into t commits the erase
// from other; a duplicate leaves other untouched.
//
// Concurrent cross-merging — one goroutine running a.Merge(b) while
// another runs b.Merge(a) — can deadlock, because the two calls
// acquire t's and other's stripes in opposite orders. That is caller
// responsibility rather than a bug for this design to defend against,
// and this implementation does not attempt to detect or prevent it:
// callers that merge tables in both directions must externally order
// those calls.
func (t *Table[K, V]) Merge(other *Table[K, V]) {
	trace := logger.StartTrace("merge", "")
	defer trace.EndTrace()

	otherTok := other.striped.SharedAccess()
	defer other.striped.ReleaseShared(otherTok)

	for pos, grp := range other.arrays.groups {
		gate := other.arrays.gate(pos)
		gate.exclusiveLock()
		for n := 0; n < slotsPerGroup; n++ {
			if !grp.isOccupied(n) {
				continue
			}
			idx := other.arrays.slot(pos, n)
			entry := other.arrays.elements[idx]
			if t.Emplace(entry.Key, entry.Value) {
				var zero Entry[K, V]
				other.arrays.elements[idx] = zero
				grp.reset(n)
				other.size.Add(-1)
			}
		}
		gate.exclusiveUnlock()
	}
}

// Swap exchanges the contents of t and other, bi-locking both tables
// exclusively in a fixed order to avoid the AB/BA deadlock that a
// naive "lock t then lock other" would risk if two goroutines swapped
// the same pair in opposite order.
func (t *Table[K, V]) Swap(other *Table[K, V]) {
	trace := logger.StartTrace("swap", "")
	defer trace.EndTrace()

	first, second := exclusiveBiLock(t.striped, other.striped)
	defer first.ReleaseExclusive()
	defer second.ReleaseExclusive()

	t.arrays, other.arrays = other.arrays, t.arrays
	tSize, oSize := t.size.Load(), other.size.Load()
	t.size.Store(oSize)
	other.size.Store(tSize)
}
