// SPDX-License-Identifier: MIT
//
// Cache wires the critnib index and the fragment heap into the minimal
// value cache spec.md §2's data-flow paragraph describes: construct a
// key blob and an entry descriptor, ask the heap for a byte range, store
// the value there, publish the entry into the critnib under the key.
// Eviction reverses the sequence.
//
// This is the "external collaborator" spec.md §1 scopes the critnib and
// fragment-heap spec out to — kept minimal and single-writer (the
// critnib itself is not internally synchronized; this package is
// responsible for serializing access to it).
//
// Grounded on the Cache struct shape in util/ttlcache/ttlcache.go
// (fields up top, constructor, Put/Get pair) and the typed-wrapper
// pattern in util/dnstrie/dnstrie.go (build a byte-string key, delegate
// to the generic tree).
package cache

import (
	"encoding/binary"
	"errors"
	"sync"

	"vmemcache/critnib"
	"vmemcache/fragheap"
	"vmemcache/log"
)

// ErrHeapExhausted is returned by Put when the fragment heap cannot
// satisfy the value's allocation.
var ErrHeapExhausted = errors.New("cache: fragment heap exhausted")

// entry is the opaque handle a critnib leaf stores: where the value
// bytes live in the heap, and how many of the fragment's bytes they fill.
type entry struct {
	fragment fragheap.Entry
	length   int
}

// Cache is a single-writer, volatile value cache backed by one fragment
// heap and one critnib index.
type Cache struct {
	mu     sync.Mutex
	heap   *fragheap.Heap
	index  *critnib.Index[entry]
	region []byte
	unmap  func() error
}

// New creates a cache whose values live in a freshly mmapped region of
// regionSize bytes, quantized to fragmentSize.
func New(regionSize, fragmentSize int) (*Cache, error) {
	region, unmap, err := fragheap.NewMappedRegion(regionSize)
	if err != nil {
		return nil, err
	}
	return &Cache{
		heap:   fragheap.Create(region, fragmentSize),
		index:  critnib.New[entry](),
		region: region,
		unmap:  unmap,
	}, nil
}

// Close tears down the index and unmaps the backing region.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index.Delete()
	c.heap.Destroy()
	if c.unmap != nil {
		return c.unmap()
	}
	return nil
}

// blobKey builds the length-prefixed key blob convention from spec.md
// §6: a fixed-width key-size field followed by the key bytes, so that no
// valid blob key is a prefix of another.
func blobKey(key []byte) []byte {
	blob := make([]byte, 4+len(key))
	binary.LittleEndian.PutUint32(blob, uint32(len(key)))
	copy(blob[4:], key)
	return blob
}

// Put stores value under key. It returns critnib.ErrAlreadyPresent if
// key is already in the cache, or ErrHeapExhausted if the heap cannot
// allocate room for value.
func (c *Cache) Put(key, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frag := c.heap.Alloc(len(value))
	if frag.Empty() && len(value) > 0 {
		log.Trace("put", string(key), ErrHeapExhausted)
		return ErrHeapExhausted
	}
	copy(frag.Base, value)

	if err := c.index.Set(blobKey(key), entry{fragment: frag, length: len(value)}); err != nil {
		c.heap.Free(frag)
		log.Trace("put", string(key), err)
		return err
	}

	log.Trace("put", string(key), nil)
	return nil
}

// Get returns a copy of the value stored under key.
func (c *Cache) Get(key []byte) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index.Get(blobKey(key))
	if !ok {
		log.Trace("get", string(key), errMiss)
		return nil, false
	}

	value := make([]byte, e.length)
	copy(value, e.fragment.Base)
	log.Trace("get", string(key), nil)
	return value, true
}

// Evict removes key from the cache and frees its fragment, reversing the
// Put sequence.
func (c *Cache) Evict(key []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index.Remove(blobKey(key))
	if !ok {
		log.Trace("evict", string(key), errMiss)
		return false
	}
	c.heap.Free(e.fragment)
	log.Trace("evict", string(key), nil)
	return true
}

// errMiss is a local sentinel passed to the trace hook on a miss; it is
// never returned to callers (Get/Evict report misses via their bool).
var errMiss = errors.New("cache: miss")

// CacheStats is a read-only observability snapshot.
type CacheStats struct {
	Entries      int
	UsedBytes    int64
	IndexNodes   int
	IndexLeaves  int
	FragmentSize int
}

// Stats reports current cache occupancy.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes, leaves := c.index.Stats()
	return CacheStats{
		Entries:      leaves,
		UsedBytes:    c.heap.UsedBytes(),
		IndexNodes:   nodes,
		IndexLeaves:  leaves,
		FragmentSize: c.heap.FragmentSize(),
	}
}
