package core

import (
	"fmt"

	"chashtable/logger"
)

// rehashIfFull acquires the exclusive table lock, double-checks the
// table is still at its load limit (another goroutine may have
// already grown it while we waited), then reallocates at the next
// size and moves every live element across, recomputing probe
// positions. This is the only operation that invalidates element
// storage addresses; no address stability guarantee is offered across
// a rehash.
//
// Returns nil if the table is already below its load limit (no-op) or
// growth succeeded; returns the ErrOutOfMemory-wrapping error from
// reallocateLocked if growth failed — the old arrays are left
// untouched and usable at their previous capacity either way.
func (t *Table[K, V]) rehashIfFull() error {
	t.resizeMu.Lock()
	defer t.resizeMu.Unlock()

	t.striped.Exclusive()
	defer t.striped.ReleaseExclusive()

	if int64(t.arrays.capacity()) != 0 && t.size.Load() < t.maxLoad() {
		return nil // another goroutine already grew the table
	}

	next := t.nextGroupCount()
	if err := t.reallocateLocked(next); err != nil {
		logger.Warn("rehash: %v", err)
		return err
	}
	return nil
}

// nextGroupCount picks the next group count: the configured initial
// size for a table growing from empty, otherwise double the current
// group count.
func (t *Table[K, V]) nextGroupCount() int {
	cur := t.arrays.numGroups()
	if cur == 0 {
		if t.opts.InitialGroups < 1 {
			return 1
		}
		return t.opts.InitialGroups
	}
	return cur * 2
}

// Rehash grows (or shrinks, if n is smaller but still large enough
// for the current size) the table to hold at least n groups' worth of
// slots, acquiring the exclusive table lock.
func (t *Table[K, V]) Rehash(minGroups int) error {
	t.resizeMu.Lock()
	defer t.resizeMu.Unlock()

	t.striped.Exclusive()
	defer t.striped.ReleaseExclusive()

	if minGroups < 1 {
		minGroups = 1
	}
	return t.reallocateLocked(minGroups)
}

// Reserve ensures the table can hold at least n elements without a
// further rehash.
func (t *Table[K, V]) Reserve(n int) error {
	if n < 1 {
		n = 1
	}
	groups := 1
	for float64(groups*slotsPerGroup)*t.opts.MaxLoadFactor < float64(n) {
		groups++
	}
	return t.Rehash(groups)
}

// reallocateLocked performs the actual move. Caller must hold both
// resizeMu and the exclusive table lock.
func (t *Table[K, V]) reallocateLocked(groups int) error {
	trace := logger.StartTrace("rehash", fmt.Sprintf("groups=%d", groups))
	defer trace.EndTrace()

	if groups < t.minGroupsForCurrentSize() {
		groups = t.minGroupsForCurrentSize()
	}

	newArrays, err := newTableArrays[K, V](groups, t.opts.MaxGroups)
	if err != nil {
		return err
	}

	trace.StartSpan("move")
	old := t.arrays
	for pos, grp := range old.groups {
		for n := 0; n < slotsPerGroup; n++ {
			if !grp.isOccupied(n) {
				continue
			}
			idx := old.slot(pos, n)
			entry := old.elements[idx]
			insertDuringRehash(newArrays, t.hash(entry.Key), entry)
		}
	}
	trace.EndSpan("move")

	t.arrays = newArrays
	logger.TraceIf("rehash", "grew from %d to %d groups (size=%d)", old.numGroups(), groups, t.size.Load())
	return nil
}

// minGroupsForCurrentSize returns the smallest group count that could
// possibly hold the table's current element count at the configured
// max load factor, used to refuse a Rehash(n) that would shrink below
// what's already stored.
func (t *Table[K, V]) minGroupsForCurrentSize() int {
	size := t.size.Load()
	if size == 0 {
		return 1
	}
	groups := 1
	for int64(float64(groups*slotsPerGroup)*t.opts.MaxLoadFactor) < size {
		groups *= 2
	}
	return groups
}

// insertDuringRehash places entry into newArrays. Unlike the
// optimistic insert protocol, rehash holds the exclusive table lock
// against every other operation, so there is no concurrent-insert
// race to detect and no group locking is required: each group here is
// touched by exactly one goroutine (the one running rehash).
func insertDuringRehash[K comparable, V any](arrays *tableArrays[K, V], h uint64, entry Entry[K, V]) {
	numGroups := arrays.numGroups()
	pos := positionFor(h, numGroups)
	for {
		grp := arrays.groups[pos]
		if avail := grp.matchAvailable(); avail != 0 {
			n := lowestSetBit(avail)
			grp.set(n, h)
			arrays.elements[arrays.slot(pos, n)] = entry
			return
		}
		grp.markOverflow(h)
		pos = nextProbe(pos, numGroups)
	}
}
