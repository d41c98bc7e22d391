// SPDX-License-Identifier: MIT
//
// Backing-region helper: obtains the "single pre-mapped region" a
// fragment heap is built over via an anonymous mmap, so a caller doesn't
// have to hand-roll one. Create itself is agnostic to how base was
// obtained and happily accepts a plain make([]byte, n) slice too.
//
// Platform-specific mmap/munmap implementations are in region_unix.go
// and region_other.go, following the mmap_unix.go / mmap_windows.go
// split used by the pager package in the wider example pack this idiom
// was borrowed from.
package fragheap

// NewMappedRegion mmaps an anonymous, read-write region of size bytes
// and returns it along with a function that unmaps it. The returned
// region is suitable as the base argument to Create.
func NewMappedRegion(size int) (region []byte, closeFn func() error, err error) {
	return newMappedRegion(size)
}
