// SPDX-License-Identifier: MIT
//
// Fragment heap tests.

package fragheap

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"pgregory.net/rapid"
)

// Scenario 4 from spec.md §8.
func TestScenarioFour(t *testing.T) {
	region := make([]byte, 1<<20) // 1 MiB
	h := Create(region, 256)

	e1 := h.Alloc(300)
	require.False(t, e1.Empty())
	assert.Equal(t, 512, e1.Size)

	e2 := h.Alloc(500)
	require.False(t, e2.Empty())
	assert.Equal(t, 512, e2.Size)

	e3 := h.Alloc(100)
	require.False(t, e3.Empty())
	assert.Equal(t, 256, e3.Size)

	assert.EqualValues(t, 1280, h.UsedBytes())

	freedPtr := &e2.Base[0]
	h.Free(e2)

	e4 := h.Alloc(400)
	require.False(t, e4.Empty())
	assert.Equal(t, 512, e4.Size)
	assert.Same(t, freedPtr, &e4.Base[0])
}

// Scenario 5 from spec.md §8.
func TestScenarioFive(t *testing.T) {
	region := make([]byte, 4096)
	h := Create(region, 256)

	entries := make([]Entry, 0, 16)
	for i := 0; i < 16; i++ {
		e := h.Alloc(256)
		require.False(t, e.Empty(), "alloc %d", i)
		entries = append(entries, e)
	}

	empty := h.Alloc(256)
	assert.True(t, empty.Empty())

	h.Free(entries[0])
	e := h.Alloc(256)
	assert.False(t, e.Empty())
}

func TestAllocRounding(t *testing.T) {
	cases := []struct {
		request, want int
	}{
		{1, 256},
		{256, 256},
		{257, 512},
	}
	for _, c := range cases {
		h := Create(make([]byte, 4096), 256)
		e := h.Alloc(c.request)
		require.False(t, e.Empty())
		assert.Equal(t, c.want, e.Size)
	}
}

func TestAllocEmptyOnExhaustion(t *testing.T) {
	h := Create(make([]byte, 256), 256)
	e := h.Alloc(256)
	require.False(t, e.Empty())

	e2 := h.Alloc(1)
	assert.True(t, e2.Empty())
	assert.Nil(t, e2.Base)
}

func TestFreeThenAllocLIFO(t *testing.T) {
	h := Create(make([]byte, 1024), 256)
	a := h.Alloc(256)
	b := h.Alloc(256)
	h.Free(a)
	h.Free(b)

	// Most-recently-freed (b) comes back first.
	next := h.Alloc(256)
	assert.Same(t, &b.Base[0], &next.Base[0])
}

// Scenario 6 from spec.md §8: concurrent alloc/free preserves
// conservation at quiescence.
func TestConcurrentAllocFreeConservation(t *testing.T) {
	const (
		fragmentSize = 64
		regionSize   = 64 * 64 // 64 fragments
		workers      = 8
		opsPerWorker = 20000 // about 10,000 alloc/free pairs per worker
	)

	h := Create(make([]byte, regionSize), fragmentSize)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			var held []Entry
			for i := 0; i < opsPerWorker; i++ {
				if len(held) == 0 || rand.IntN(2) == 0 {
					e := h.Alloc(fragmentSize)
					if !e.Empty() {
						held = append(held, e)
					}
				} else {
					e := held[len(held)-1]
					held = held[:len(held)-1]
					h.Free(e)
				}
			}
			for _, e := range held {
				h.Free(e)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Zero(t, h.UsedBytes())

	// Conservation: with nothing live, draining the free-list one
	// fragment at a time yields exactly the whole region.
	drained := 0
	for {
		e := h.Alloc(fragmentSize)
		if e.Empty() {
			break
		}
		drained += e.Size
	}
	assert.Equal(t, regionSize, drained)
}

// Property: heap conservation and allocation rounding, for a sequence of
// alloc/free operations against one heap.
func TestPropertyHeapConservation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		const fragmentSize = 32
		const regionSize = 32 * 40
		h := Create(make([]byte, regionSize), fragmentSize)

		var mu sync.Mutex
		var live []Entry
		var liveTotal int

		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			mu.Lock()
			canFree := len(live) > 0
			mu.Unlock()

			doAlloc := !canFree || rapid.Boolean().Draw(rt, "doAlloc")
			if doAlloc {
				req := rapid.IntRange(1, fragmentSize*3).Draw(rt, "req")
				e := h.Alloc(req)
				if !e.Empty() {
					require.Zero(rt, e.Size%fragmentSize)
					require.GreaterOrEqual(rt, e.Size, req)
					mu.Lock()
					live = append(live, e)
					liveTotal += e.Size
					mu.Unlock()
				}
			} else {
				idx := rapid.IntRange(0, len(live)-1).Draw(rt, "idx")
				mu.Lock()
				e := live[idx]
				live = append(live[:idx], live[idx+1:]...)
				liveTotal -= e.Size
				mu.Unlock()
				h.Free(e)
			}

			require.EqualValues(rt, liveTotal, h.UsedBytes())
		}

		// Conservation: live sizes plus everything left on the free-list
		// (drained one fragment at a time) equal the initial region size.
		drained := 0
		for {
			e := h.Alloc(fragmentSize)
			if e.Empty() {
				break
			}
			drained += e.Size
		}
		require.Equal(rt, regionSize, liveTotal+drained)
	})
}
