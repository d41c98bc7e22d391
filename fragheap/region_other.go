//go:build !unix

// SPDX-License-Identifier: MIT

package fragheap

import "fmt"

// newMappedRegion falls back to a plain heap allocation on platforms
// without a POSIX mmap (e.g. Windows); nothing in Create or Alloc
// depends on the region actually being page-mapped.
func newMappedRegion(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("fragheap: region size must be positive, got %d", size)
	}
	region := make([]byte, size)
	return region, func() error { return nil }, nil
}
