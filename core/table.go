// Package core implements the concurrent open-addressing hash table
// engine: group metadata, per-group access gates, table arrays, the
// striped table lock, and the public operation surface (visit,
// emplace, erase, rehash, merge).
//
// No iterator is exposed; all traversal is by visitor, invoked while
// the appropriate group lock is held.
package core

import (
	"sync"
	"sync/atomic"
)

// Options configures a new Table. Zero value is not meaningful; use
// DefaultOptions to get sane defaults.
type Options struct {
	// InitialGroups is how many groups to allocate the first time a
	// previously-empty table needs storage.
	InitialGroups int
	// MaxLoadFactor bounds size/capacity before rehashIfFull triggers.
	MaxLoadFactor float64
	// StripeCount is the number of table-lock stripes.
	StripeCount int
	// MaxGroups bounds how large the table may grow; 0 means
	// unbounded. See ErrOutOfMemory.
	MaxGroups int
}

// DefaultOptions returns the library's documented defaults.
func DefaultOptions() Options {
	return Options{
		InitialGroups: 1,
		MaxLoadFactor: 0.875,
		StripeCount:   DefaultStripeCount,
		MaxGroups:     0,
	}
}

// Table is the concurrent engine. It is safe for concurrent use by
// multiple goroutines without any external synchronization.
type Table[K comparable, V any] struct {
	opts    Options
	hash    HashFunc[K]
	equal   EqualFunc[K]
	striped *StripedLock

	// resizeMu serializes rehashIfFull / Rehash / Reserve against
	// each other (the exclusive table lock already excludes readers
	// and writers, but two goroutines could both observe the table as
	// full and both decide to rehash; resizeMu makes the decision to
	// grow itself atomic without widening the exclusive section any
	// more than necessary).
	resizeMu sync.Mutex

	arrays *tableArrays[K, V]
	size   atomic.Int64
}

func newOptionsOrDefault(o *Options) Options {
	if o == nil {
		d := DefaultOptions()
		return d
	}
	return *o
}

// NewTable constructs an empty concurrent table. hash and equal must
// be consistent with each other.
func NewTable[K comparable, V any](hash HashFunc[K], equal EqualFunc[K], opts *Options) *Table[K, V] {
	o := newOptionsOrDefault(opts)
	t := &Table[K, V]{
		opts:    o,
		hash:    hash,
		equal:   equal,
		striped: NewStripedLock(o.StripeCount),
		arrays:  emptyTableArrays[K, V](),
	}
	return t
}

// NewTableWithPolicy is NewTable for callers holding a Policy value
// (chashtable.Map/Set) rather than separate hash/equal funcs.
func NewTableWithPolicy[K comparable, V any](p Policy[K, V], opts *Options) *Table[K, V] {
	return NewTable[K, V](p.Hash, p.Equal, opts)
}

// Size returns the number of elements currently stored.
func (t *Table[K, V]) Size() int {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)
	return int(t.size.Load())
}

// Capacity returns G*N, the number of slots in the current
// allocation. A rehash is triggered before every slot is used, once
// the size reaches MaxLoad.
func (t *Table[K, V]) Capacity() int {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)
	return t.arrays.capacity()
}

// Empty reports whether the table currently holds no elements.
func (t *Table[K, V]) Empty() bool {
	return t.Size() == 0
}

// LoadFactor returns size/capacity, or 0 for an empty-capacity table.
func (t *Table[K, V]) LoadFactor() float64 {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)
	cap := t.arrays.capacity()
	if cap == 0 {
		return 0
	}
	return float64(t.size.Load()) / float64(cap)
}

// maxLoad returns the element count at which the next insert triggers
// a rehash, i.e. floor(capacity * MaxLoadFactor). Caller must hold at
// least a shared stripe.
func (t *Table[K, V]) maxLoad() int64 {
	return int64(float64(t.arrays.capacity()) * t.opts.MaxLoadFactor)
}

// MaxLoad returns the element count at which the next insert triggers
// a rehash at the table's current capacity. This value moves every
// time a rehash changes capacity; callers that need a stable threshold
// should read Options.MaxLoadFactor instead.
func (t *Table[K, V]) MaxLoad() int64 {
	tok := t.striped.SharedAccess()
	defer t.striped.ReleaseShared(tok)
	return t.maxLoad()
}
