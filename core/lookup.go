package core

import "chashtable/logger"

// Visit invokes f with a pointer to key's value while the matched
// group's shared lock is held, and returns true, if key is present.
// Otherwise it returns false without invoking f.
//
// f must not call back into the table: re-entrant calls can deadlock
// against the group lock Visit holds.
func (t *Table[K, V]) Visit(key K, f func(*V)) bool {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)

	h := t.hash(key)
	return t.visitLocked(h, key, sharedGroupLock, f)
}

// VisitExclusive is cvisit's counterpart that acquires the group lock
// in exclusive mode, for callers whose visitor mutates the element in
// a way that must exclude concurrent readers of the same slot (e.g.
// map values wider than a machine word).
func (t *Table[K, V]) VisitExclusive(key K, f func(*V)) bool {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)

	h := t.hash(key)
	return t.visitLocked(h, key, exclusiveGroupLock, f)
}

// Contains reports whether key is present.
func (t *Table[K, V]) Contains(key K) bool {
	return t.Visit(key, func(*V) {})
}

type groupLockMode int

const (
	sharedGroupLock groupLockMode = iota
	exclusiveGroupLock
)

// visitLocked is the shared probe loop backing Visit, VisitExclusive,
// and Contains: probe groups starting at pos0(h), SIMD-match the tag
// lock-free, then re-check occupancy and full key equality under the
// matched group's lock before invoking f.
func (t *Table[K, V]) visitLocked(h uint64, key K, mode groupLockMode, f func(*V)) bool {
	numGroups := t.arrays.numGroups()
	if numGroups == 0 {
		return false
	}
	pos := positionFor(h, numGroups)
	for {
		grp := t.arrays.groups[pos]
		if mask := grp.match(h); mask != 0 {
			gate := t.arrays.gate(pos)
			if mode == exclusiveGroupLock {
				gate.exclusiveLock()
				logger.TraceIf("group", "exclusive lock acquired at pos=%d", pos)
			} else {
				gate.sharedLock()
				logger.TraceIf("group", "shared lock acquired at pos=%d", pos)
			}
			for rem := mask; rem != 0; {
				var n int
				n, rem = nextSetBit(rem)
				if grp.isOccupied(n) {
					idx := t.arrays.slot(pos, n)
					if t.equal(key, t.arrays.elements[idx].Key) {
						f(&t.arrays.elements[idx].Value)
						if mode == exclusiveGroupLock {
							gate.exclusiveUnlock()
						} else {
							gate.sharedUnlock()
						}
						return true
					}
				}
			}
			if mode == exclusiveGroupLock {
				gate.exclusiveUnlock()
			} else {
				gate.sharedUnlock()
			}
			logger.TraceIf("group", "lock released at pos=%d", pos)
		}
		if grp.isNotOverflowed(h) {
			return false
		}
		pos = nextProbe(pos, numGroups)
	}
}

// VisitAll invokes f once for every currently-occupied element,
// acquiring each group's shared lock in turn. Returns the number of
// elements visited.
func (t *Table[K, V]) VisitAll(f func(key K, value *V)) int {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)

	count := 0
	for pos, grp := range t.arrays.groups {
		gate := t.arrays.gate(pos)
		gate.sharedLock()
		for n := 0; n < slotsPerGroup; n++ {
			if grp.isOccupied(n) {
				idx := t.arrays.slot(pos, n)
				f(t.arrays.elements[idx].Key, &t.arrays.elements[idx].Value)
				count++
			}
		}
		gate.sharedUnlock()
	}
	logger.TraceIf("visit_all", "visited %d elements across %d groups", count, t.arrays.numGroups())
	return count
}
