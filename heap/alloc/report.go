package alloc

// Report returns a copy of the current state. It never mutates the engine,
// so two calls with nothing in between return equal snapshots.
func (e *Engine) Report() Snapshot {
	s := Snapshot{
		Total:  e.total,
		Blocks: make([]BlockInfo, 0, len(e.blocks)),
		Free:   make([]FreeRun, 0, len(e.free)),
	}

	for _, b := range e.blocks {
		s.Blocks = append(s.Blocks, BlockInfo{
			Start:    b.start,
			Size:     b.size,
			RefCount: b.refCount,
			Owners:   append([]string(nil), b.owners...),
		})
		s.Allocated += b.size
	}

	for _, r := range e.free {
		s.Free = append(s.Free, r)
		s.FreeUnits += r.Size
	}

	return s
}

// OccupiedUnits returns the number of units marked in the occupancy bitmap.
// Between operations it equals Report().Allocated.
func (e *Engine) OccupiedUnits() int {
	return e.occ.count()
}

// FreeUnits returns the total size of the free runs. It walks the free list,
// not the bitmap.
func (e *Engine) FreeUnits() int {
	n := 0
	for _, r := range e.free {
		n += r.Size
	}
	return n
}

// Fragmentation returns 1 - largest free run / total free units, or 0 when
// nothing is free. A single free run gives 0.
func (s Snapshot) Fragmentation() float64 {
	if s.FreeUnits == 0 {
		return 0
	}
	largest := 0
	for _, r := range s.Free {
		largest = max(largest, r.Size)
	}
	return 1 - float64(largest)/float64(s.FreeUnits)
}
