package core

import "chashtable/logger"

// EmplaceOrVisit implements the insert family's outer loop. If key is
// absent, newValue is called to produce the value to insert and
// EmplaceOrVisit returns true. If key is present, onExisting (may be
// nil) is invoked with a pointer to the existing value and
// EmplaceOrVisit returns false. If the table cannot grow any further
// (ErrOutOfMemory), EmplaceOrVisit gives up and returns false rather
// than retrying forever; use EmplaceOrVisitErr to observe the
// failure.
func (t *Table[K, V]) EmplaceOrVisit(key K, newValue func() V, onExisting func(*V)) bool {
	inserted, err := t.EmplaceOrVisitErr(key, newValue, onExisting)
	return err == nil && inserted
}

// EmplaceOrVisitErr is EmplaceOrVisit surfacing the out-of-memory
// error callers need to be able to observe, instead of swallowing it
// into a bare false.
func (t *Table[K, V]) EmplaceOrVisitErr(key K, newValue func() V, onExisting func(*V)) (bool, error) {
	if onExisting == nil {
		onExisting = func(*V) {}
	}
	for {
		tok := t.striped.SharedAccess()
		res := t.unprotectedNorehashEmplaceOrVisit(key, newValue, onExisting)
		t.striped.ReleaseShared(tok)
		if res >= 0 {
			return res == 1, nil
		}
		if err := t.rehashIfFull(); err != nil {
			return false, err
		}
	}
}

// Emplace inserts key/value if key is absent; returns true if a new
// element was inserted.
func (t *Table[K, V]) Emplace(key K, value V) bool {
	return t.EmplaceOrVisit(key, func() V { return value }, nil)
}

// TryEmplace is an alias of Emplace kept for callers that prefer the
// try_emplace name.
func (t *Table[K, V]) TryEmplace(key K, value V) bool {
	return t.Emplace(key, value)
}

// EmplaceOrError is Emplace for callers that want an error instead of
// a boolean: ErrKeyExists when the key is already present, or the
// ErrOutOfMemory-wrapping error from EmplaceOrVisitErr when the table
// could not grow to fit a new key.
func (t *Table[K, V]) EmplaceOrError(key K, value V) error {
	inserted, err := t.EmplaceOrVisitErr(key, func() V { return value }, nil)
	if err != nil {
		return err
	}
	if !inserted {
		return ErrKeyExists
	}
	return nil
}

// unprotectedNorehashEmplaceOrVisit is the optimistic insert protocol.
// It runs holding only a shared stripe (the caller's responsibility)
// and returns 1 (inserted), 0 (key already present, onExisting
// invoked), or -1 (table at load limit, caller must rehashIfFull and
// retry).
func (t *Table[K, V]) unprotectedNorehashEmplaceOrVisit(key K, newValue func() V, onExisting func(*V)) int {
	retries := 0
restart:
	numGroups := t.arrays.numGroups()
	if numGroups == 0 {
		return -1 // force the caller through rehash_if_full to allocate the first groups
	}

	h := t.hash(key)
	pos0 := positionFor(h, numGroups)
	gate0 := t.arrays.gate(pos0)
	snapshot := gate0.counterSnapshot()

	if t.visitLocked(h, key, exclusiveGroupLock, onExisting) {
		return 0
	}

	if t.size.Add(1) > t.maxLoad() {
		t.size.Add(-1)
		return -1
	}

	pos := pos0
	for {
		grp := t.arrays.groups[pos]
		gate := t.arrays.gate(pos)
		gate.exclusiveLock()

		if avail := grp.matchAvailable(); avail != 0 {
			n := lowestSetBit(avail)
			grp.set(n, h)

			if !gate0.bumpCounterExpecting(snapshot) {
				// Someone else completed an insert that started at
				// pos0 between our lookup and now: our view of "is
				// key present" may be stale. Undo the tentative tag
				// and the size reservation, then restart the whole
				// lookup+insert cycle.
				grp.reset(n)
				gate.exclusiveUnlock()
				t.size.Add(-1)
				retries++
				logger.TraceIf("insert", "counter race at pos0=%d, restarting (attempt %d)", pos0, retries)
				if retries == 8 {
					logger.Warn("insert: %d consecutive counter races at pos0=%d, high contention on this group", retries, pos0)
				}
				goto restart
			}

			idx := t.arrays.slot(pos, n)
			t.arrays.elements[idx] = Entry[K, V]{Key: key, Value: newValue()}
			gate.exclusiveUnlock()
			return 1
		}

		grp.markOverflow(h)
		gate.exclusiveUnlock()
		pos = nextProbe(pos, numGroups)
	}
}
