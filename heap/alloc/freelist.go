package alloc

import (
	"math"
	"slices"
	"sort"
)

// bestFit returns the index of the free run with the least slack that still
// holds size units, or -1. Ties keep the first run found, which is the lowest
// address because the list is address ordered.
func (e *Engine) bestFit(size int) int {
	best := -1
	minSlack := math.MaxInt
	for i, run := range e.free {
		if run.Size < size {
			continue
		}
		slack := run.Size - size
		if slack < minSlack {
			best = i
			minSlack = slack
			if slack == 0 {
				break
			}
		}
	}
	return best
}

// carve takes size units from the front of free run i and returns their start.
// An exhausted run is removed.
func (e *Engine) carve(i, size int) int {
	run := &e.free[i]
	start := run.Start
	run.Start += size
	run.Size -= size
	if run.Size == 0 {
		e.free = slices.Delete(e.free, i, i+1)
	} else {
		e.stats.SplitCount++
	}
	return start
}

// insertFreeRun adds run at its address-ordered position, merging it with the
// preceding and following runs when they touch it.
func (e *Engine) insertFreeRun(run FreeRun) {
	i := sort.Search(len(e.free), func(j int) bool {
		return e.free[j].Start >= run.Start
	})

	// Merge with the following run first so i stays valid for the backward check.
	if i < len(e.free) && run.End() == e.free[i].Start {
		run.Size += e.free[i].Size
		e.free = slices.Delete(e.free, i, i+1)
		e.stats.CoalesceForward++
	}

	if i > 0 && e.free[i-1].End() == run.Start {
		e.free[i-1].Size += run.Size
		e.stats.CoalesceBackward++
		return
	}

	e.free = slices.Insert(e.free, i, run)
}
