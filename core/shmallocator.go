package core

import (
	"fmt"
	"os"
	"sync/atomic"
	"syscall"
	"unsafe"
)

// shmHeaderSize reserves the first 8 bytes of the mapped region for a
// bump-allocation cursor, so the cursor itself lives in shared memory
// rather than in either process's private heap. Without this, two
// separately-opened ShmAllocator values over the same region would
// both start handing out offset 0 and collide.
const shmHeaderSize = 8

// ShmAllocator is a bump allocator over a single syscall.Mmap region,
// safe to place inside memory shared across processes. Built on the
// same syscall.Mmap/Munmap pair and unsafe.Pointer casts over raw
// mapped bytes used elsewhere in this codebase's lineage for
// memory-mapped reads, adapted from a read-only file mapping into a
// read-write one whose allocation cursor is itself part of the shared
// state.
//
// Callers never receive a pointer into the region: every allocation is
// identified by a byte offset, matching the invariant that no raw
// address into the table's arrays may be stored in shared state — a
// second process mapping the same region sees the same physical pages
// at a virtual address of its own choosing, but an offset means the
// same thing in both.
type ShmAllocator struct {
	data []byte
}

func (a *ShmAllocator) cursor() *uint64 {
	return (*uint64)(unsafe.Pointer(&a.data[0]))
}

// NewShmAllocator maps size bytes of anonymous, shared memory.
func NewShmAllocator(size int) (*ShmAllocator, error) {
	if size <= shmHeaderSize {
		return nil, fmt.Errorf("core: shared memory size must exceed %d bytes, got %d", shmHeaderSize, size)
	}
	data, err := syscall.Mmap(-1, 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED|syscall.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("core: mmap shared region: %w", err)
	}
	return &ShmAllocator{data: data}, nil
}

// OpenShmAllocatorFile maps size bytes of a file at path as MAP_SHARED,
// creating it if needed. Unlike NewShmAllocator's anonymous mapping, a
// file-backed mapping can be reopened by a separate process that only
// knows the path. The Go runtime does not support a bare fork(2) that
// leaves the child sharing the parent's heap, so the cross-process
// test forks via os/exec instead and hands the child this path.
func OpenShmAllocatorFile(path string, size int) (*ShmAllocator, error) {
	if size <= shmHeaderSize {
		return nil, fmt.Errorf("core: shared memory size must exceed %d bytes, got %d", shmHeaderSize, size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("core: open shared region file: %w", err)
	}
	defer f.Close()
	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("core: truncate shared region file: %w", err)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("core: mmap shared region file: %w", err)
	}
	return &ShmAllocator{data: data}, nil
}

// Alloc reserves n bytes and returns their offset into the mapping,
// advancing the shared cursor with a lock-free CAS loop so concurrent
// callers in the same or different processes never overlap.
func (a *ShmAllocator) Alloc(n int) (int, error) {
	cursor := a.cursor()
	for {
		cur := atomic.LoadUint64(cursor)
		next := cur + uint64(n)
		if shmHeaderSize+next > uint64(len(a.data)) {
			return 0, fmt.Errorf("core: shared region exhausted after %d/%d bytes: %w", cur, len(a.data)-shmHeaderSize, ErrOutOfMemory)
		}
		if atomic.CompareAndSwapUint64(cursor, cur, next) {
			return shmHeaderSize + int(cur), nil
		}
	}
}

// At returns the n-byte slice backing offset off. Both processes
// sharing the mapping must call At with the same offset to observe
// the same bytes.
func (a *ShmAllocator) At(off, n int) []byte {
	return a.data[off : off+n]
}

// Len returns the usable capacity of the mapped region, excluding the
// allocation-cursor header.
func (a *ShmAllocator) Len() int { return len(a.data) - shmHeaderSize }

// Close unmaps the region in the calling process. Each process closes
// its own mapping; unmapping in one process does not affect another
// process's mapping of the same file.
func (a *ShmAllocator) Close() error {
	if a.data == nil {
		return nil
	}
	err := syscall.Munmap(a.data)
	a.data = nil
	return err
}
