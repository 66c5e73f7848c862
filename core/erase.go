package core

import "chashtable/logger"

// Erase removes key if present. Returns true if an element was
// removed.
func (t *Table[K, V]) Erase(key K) bool {
	return t.EraseIf(key, func(*V) bool { return true })
}

// EraseIf removes key if present and pred(value) returns true,
// evaluated under the matched group's exclusive lock. Returns true if
// an element was removed.
func (t *Table[K, V]) EraseIf(key K, pred func(*V) bool) bool {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)

	numGroups := t.arrays.numGroups()
	if numGroups == 0 {
		return false
	}

	h := t.hash(key)
	pos := positionFor(h, numGroups)
	for {
		grp := t.arrays.groups[pos]
		if mask := grp.match(h); mask != 0 {
			gate := t.arrays.gate(pos)
			gate.exclusiveLock()
			erased := false
			found := false
			for rem := mask; rem != 0; {
				var n int
				n, rem = nextSetBit(rem)
				if !grp.isOccupied(n) {
					continue
				}
				idx := t.arrays.slot(pos, n)
				if !t.equal(key, t.arrays.elements[idx].Key) {
					continue
				}
				found = true
				if pred(&t.arrays.elements[idx].Value) {
					// Clear to empty, not a tombstone: overflow bits
					// are left untouched (never cleared on erase) so
					// lookups for other keys whose probe path crossed
					// this group still know to keep probing.
					var zero Entry[K, V]
					t.arrays.elements[idx] = zero
					grp.reset(n)
					t.size.Add(-1)
					erased = true
				}
				break
			}
			gate.exclusiveUnlock()
			if found {
				if erased {
					logger.TraceIf("erase", "removed key from group %d slot", pos)
				}
				return erased
			}
		}
		if grp.isNotOverflowed(h) {
			return false
		}
		pos = nextProbe(pos, numGroups)
	}
}

// EraseAllIf removes every element for which pred returns true,
// evaluated under each group's exclusive lock in turn. Returns the
// number of elements removed.
func (t *Table[K, V]) EraseAllIf(pred func(key K, value *V) bool) int {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)

	removed := 0
	for pos, grp := range t.arrays.groups {
		gate := t.arrays.gate(pos)
		gate.exclusiveLock()
		for n := 0; n < slotsPerGroup; n++ {
			if !grp.isOccupied(n) {
				continue
			}
			idx := t.arrays.slot(pos, n)
			if pred(t.arrays.elements[idx].Key, &t.arrays.elements[idx].Value) {
				var zero Entry[K, V]
				t.arrays.elements[idx] = zero
				grp.reset(n)
				t.size.Add(-1)
				removed++
			}
		}
		gate.exclusiveUnlock()
	}
	if removed > 0 {
		logger.TraceIf("erase", "erase_if removed %d elements", removed)
	}
	return removed
}

// Clear removes every element, acquiring the exclusive table lock.
// Idempotent: calling Clear on an already-empty table is a no-op
// beyond the lock round-trip.
func (t *Table[K, V]) Clear() {
	trace := logger.StartTrace("clear", "")
	defer trace.EndTrace()

	t.striped.Exclusive()
	defer t.striped.ReleaseExclusive()

	for _, grp := range t.arrays.groups {
		grp.clear()
	}
	var zero Entry[K, V]
	for i := range t.arrays.elements {
		t.arrays.elements[i] = zero
	}
	t.size.Store(0)
}
