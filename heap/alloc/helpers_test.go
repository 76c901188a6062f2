package alloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine creates an engine of total units.
func newTestEngine(t testing.TB, total int) *Engine {
	t.Helper()
	e, err := New(total)
	require.NoError(t, err)
	return e
}

// newEngineWithFreeRuns creates an engine of total units whose free list is
// exactly runs. Gaps between runs are filled with blocks named fill0, fill1...
// Runs must be address ordered and non-adjacent.
func newEngineWithFreeRuns(t testing.TB, total int, runs []FreeRun) *Engine {
	t.Helper()
	e := newTestEngine(t, total)

	type segment struct {
		name string
		size int
		free bool
	}
	var segs []segment
	cursor := 0
	fill := 0
	addFill := func(size int) {
		if size > 0 {
			segs = append(segs, segment{name: fmt.Sprintf("fill%d", fill), size: size})
			fill++
		}
	}
	for i, r := range runs {
		addFill(r.Start - cursor)
		segs = append(segs, segment{name: fmt.Sprintf("hole%d", i), size: r.Size, free: true})
		cursor = r.End()
	}
	addFill(total - cursor)

	for _, s := range segs {
		_, err := e.Allocate(s.size, s.name)
		require.NoError(t, err)
	}
	for _, s := range segs {
		if s.free {
			outcome, err := e.Free(s.name)
			require.NoError(t, err)
			require.Equal(t, OutcomeFreed, outcome)
		}
	}
	require.Equal(t, runs, e.free, "layout setup")
	e.stats = Stats{}
	return e
}

// assertInvariants checks the engine's internal structures against each other.
func assertInvariants(t testing.TB, e *Engine) {
	t.Helper()

	allocated, free := 0, 0
	for i, b := range e.blocks {
		assert.Positive(t, b.size, "block %d size", i)
		assert.GreaterOrEqual(t, b.start, 0, "block %d start", i)
		assert.LessOrEqual(t, b.end(), e.total, "block %d end", i)
		assert.Equal(t, len(b.owners), b.refCount, "block %d refCount vs owners", i)
		assert.NotEmpty(t, b.owners, "block %d owners", i)
		for _, name := range b.owners {
			assert.Same(t, b, e.names[name], "owner %q of block %d", name, i)
		}
		for j := i + 1; j < len(e.blocks); j++ {
			o := e.blocks[j]
			assert.False(t, b.start < o.end() && o.start < b.end(),
				"blocks %d and %d overlap", i, j)
		}
		allocated += b.size
	}

	for i, r := range e.free {
		assert.Positive(t, r.Size, "run %d size", i)
		assert.LessOrEqual(t, r.End(), e.total, "run %d end", i)
		if i > 0 {
			prev := e.free[i-1]
			assert.Less(t, prev.End(), r.Start, "runs %d and %d overlap or touch", i-1, i)
		}
		free += r.Size
	}

	assert.Equal(t, e.total, allocated+free, "conservation")

	owners := 0
	for _, b := range e.blocks {
		owners += len(b.owners)
	}
	assert.Equal(t, owners, len(e.names), "every indexed name owns exactly one block")

	for u := 0; u < e.total; u++ {
		inBlock := false
		for _, b := range e.blocks {
			if u >= b.start && u < b.end() {
				inBlock = true
				break
			}
		}
		if inBlock != e.occ.test(u) {
			assert.Failf(t, "occupancy mismatch", "unit %d: bitmap=%v blocks=%v", u, e.occ.test(u), inBlock)
			return
		}
	}
}
