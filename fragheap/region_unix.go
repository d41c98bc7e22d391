//go:build unix

// SPDX-License-Identifier: MIT

package fragheap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func newMappedRegion(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("fragheap: region size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("fragheap: mmap failed: %w", err)
	}

	closeFn := func() error {
		return unix.Munmap(data)
	}
	return data, closeFn, nil
}
