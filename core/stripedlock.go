package core

import (
	"sync/atomic"

	"chashtable/logger"
)

// DefaultStripeCount is the default stripe width, made tunable via
// StripedLock's constructor rather than hard-coded.
const DefaultStripeCount = 128

// stripeCounter seeds stripe selection across every StripedLock in
// the process. Go goroutines have no thread-local storage, so rather
// than a per-thread counter seeded once from a process-global atomic,
// this implementation uses the global atomic directly as a
// round-robin cursor: every call to SharedAccess advances it. This
// still distributes concurrent shared-lock holders across stripes,
// which is what keeps the common path uncontended; it trades "a given
// goroutine always touches the same stripe" for "no per-goroutine
// state to allocate or leak."
var stripeCounter atomic.Uint64

// StripedLock is the table-wide lock: a fixed number
// of independent reader/writer spinlocks (stripes). Acquiring one
// stripe in shared mode is the cheap path used by lookup/insert/erase;
// acquiring every stripe in exclusive mode (ascending, released
// descending) is the global barrier used by rehash.
type StripedLock struct {
	stripes []rwSpinLock
	id      uint64
}

var stripedLockIDs atomic.Uint64

// NewStripedLock creates a StripedLock with n stripes. n must be >= 1.
func NewStripedLock(n int) *StripedLock {
	if n < 1 {
		n = 1
	}
	return &StripedLock{
		stripes: make([]rwSpinLock, n),
		id:      stripedLockIDs.Add(1),
	}
}

// SharedAccess acquires one stripe in shared mode and returns a token
// that must be passed to ReleaseShared. Concurrent callers are, with
// high probability, spread across distinct stripes and therefore do
// not contend with each other at all — only with an in-progress
// Exclusive rehash.
func (l *StripedLock) SharedAccess() int {
	id := int(stripeCounter.Add(1) % uint64(len(l.stripes)))
	l.stripes[id].rlock()
	return id
}

// ReleaseShared releases the stripe acquired by SharedAccess.
func (l *StripedLock) ReleaseShared(token int) {
	l.stripes[token].runlock()
}

// Exclusive acquires every stripe in ascending order, forming the
// rehash barrier: no shared acquisition can proceed until
// ReleaseExclusive returns every stripe. This is off the hot path (only rehash, Clear,
// and bi-table operations take it), so it is the one lock operation
// traced with logger.LogLockOperation's full stack capture rather than
// the cheaper TraceIf used around per-group locks.
func (l *StripedLock) Exclusive() {
	logger.LogLockOperation("", "striped", "table", "acquire")
	for i := range l.stripes {
		l.stripes[i].lock()
	}
}

// ReleaseExclusive releases every stripe in descending order, the
// reverse of Exclusive's acquisition order.
func (l *StripedLock) ReleaseExclusive() {
	for i := len(l.stripes) - 1; i >= 0; i-- {
		l.stripes[i].unlock()
	}
	logger.LogLockOperation("", "striped", "table", "release")
}

// exclusiveBiLock acquires two StripedLocks in address order to
// prevent the AB/BA deadlock that a naive fixed-order lock would risk
// for bi-table operations (Swap is the only caller). Go has no stable pointer
// address ordering operator, so it orders by a process-unique,
// monotonically assigned id captured at construction time instead.
func exclusiveBiLock(a, b *StripedLock) (first, second *StripedLock) {
	if a.id < b.id {
		first, second = a, b
	} else {
		first, second = b, a
	}
	first.Exclusive()
	second.Exclusive()
	return first, second
}
