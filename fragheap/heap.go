// SPDX-License-Identifier: MIT
//
// Fragment heap: a coarse-grained, concurrency-safe linear allocator
// handing out aligned byte ranges from a single pre-mapped region.
//
// The free-list is a LIFO stack of (base, size) entries. Alloc only ever
// looks at the top entry: if it's big enough, the request is served
// (splitting off a tail when the entry is larger than needed); if the
// stack is empty, the request fails. There is no search past the top and
// no coalescing of freed entries back together — the surrounding cache
// is expected to pick eviction victims that keep fragment sizes useful.
//
// Grounded on the atomic-counter idiom in dns/connpool.go (active
// atomic.Int32) and the mutex-guarded-map idiom in util/ttlcache, from
// the teacher repository this package was adapted from.
package fragheap

import (
	"sync/atomic"

	"vmemcache/container/stack"
	"vmemcache/syncutil"
)

// Entry is a (pointer, size) pair: a contiguous free or live byte range.
// The empty entry (Base == nil, Size == 0) signals allocation failure.
type Entry struct {
	Base []byte
	Size int
}

// Empty reports whether e is the empty (allocation-failed) entry.
func (e Entry) Empty() bool {
	return e.Size == 0
}

// Heap is a lock-protected free-list allocator over a single byte range,
// quantizing every allocation to a multiple of a fixed fragment size.
type Heap struct {
	fragmentSize int
	free         syncutil.Guarded[stack.Stack[Entry]]
	usedBytes    atomic.Int64
}

// Create seeds the heap's free-list with a single entry spanning all of
// base, and quantizes future allocations to fragmentSize.
func Create(base []byte, fragmentSize int) *Heap {
	if fragmentSize <= 0 {
		fragmentSize = 1
	}

	h := &Heap{fragmentSize: fragmentSize}
	h.free.With(func(s *stack.Stack[Entry]) {
		s.Reserve(len(base)/fragmentSize + 1)
		if len(base) > 0 {
			s.Push(Entry{Base: base, Size: len(base)})
		}
	})
	return h
}

// Destroy releases the free-list's own storage. The backing region
// itself was supplied by the caller and is the caller's to release.
func (h *Heap) Destroy() {
	h.free.With(func(s *stack.Stack[Entry]) {
		*s = stack.Stack[Entry]{}
	})
	h.usedBytes.Store(0)
}

// Alloc returns an entry whose size is requestedSize rounded up to a
// multiple of the fragment size, or the empty entry if the heap cannot
// satisfy the request right now (top-of-stack entry too small, or the
// free-list empty).
func (h *Heap) Alloc(requestedSize int) Entry {
	size := roundUp(requestedSize, h.fragmentSize)

	var result Entry
	h.free.With(func(s *stack.Stack[Entry]) {
		top, ok := s.Pop()
		if !ok {
			return
		}
		if top.Size < size {
			s.Push(top) // doesn't fit; leave the free-list unchanged
			return
		}
		if top.Size > size {
			s.Push(Entry{Base: top.Base[size:], Size: top.Size - size})
		}
		result = Entry{Base: top.Base[:size:size], Size: size}
	})

	if !result.Empty() {
		h.usedBytes.Add(int64(result.Size))
	}
	return result
}

// Free returns e to the free-list. Freeing the empty entry is a no-op.
// Double-free and freeing a foreign entry are caller bugs and undefined.
func (h *Heap) Free(e Entry) {
	if e.Empty() {
		return
	}
	h.free.With(func(s *stack.Stack[Entry]) {
		s.Push(e)
	})
	h.usedBytes.Add(-int64(e.Size))
}

// UsedBytes returns the current sum of live allocation sizes. It reads
// the atomic counter directly, so it never blocks on the free-list lock.
func (h *Heap) UsedBytes() int64 {
	return h.usedBytes.Load()
}

// FragmentSize returns the heap's quantization unit.
func (h *Heap) FragmentSize() int {
	return h.fragmentSize
}

func roundUp(n, fragmentSize int) int {
	if fragmentSize <= 1 {
		return n
	}
	rem := n % fragmentSize
	if rem == 0 {
		return n
	}
	return n + (fragmentSize - rem)
}
