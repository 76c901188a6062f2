package verify

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/joshuapare/blockalloc/heap/alloc"
)

// ValidationError describes a broken invariant.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at unit %d: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// State is the read-only view of an engine the live checks need.
// *alloc.Engine satisfies it.
type State interface {
	Report() alloc.Snapshot
	Lookup(name string) (int, bool)
	Occupied(unit int) bool
	Names() int
}

var _ State = (*alloc.Engine)(nil)

// AllInvariants runs every check against a fresh snapshot of st.
// Returns the first error encountered, or nil if all checks pass.
func AllInvariants(st State) error {
	s := st.Report()
	if err := Snapshot(s); err != nil {
		return err
	}
	if err := NameIndex(st, s); err != nil {
		return err
	}
	return Occupancy(st, s)
}

// Snapshot runs the checks that need nothing but s.
func Snapshot(s alloc.Snapshot) error {
	if err := Conservation(s); err != nil {
		return err
	}
	if err := FreeRuns(s); err != nil {
		return err
	}
	return Blocks(s)
}

// Conservation checks that the block and free-run sizes add up to the total,
// and that the snapshot's own totals match its lists.
func Conservation(s alloc.Snapshot) error {
	allocated, free := 0, 0
	for _, b := range s.Blocks {
		allocated += b.Size
	}
	for _, r := range s.Free {
		free += r.Size
	}

	if allocated != s.Allocated || free != s.FreeUnits {
		return &ValidationError{
			Type:    "Conservation",
			Message: fmt.Sprintf("totals disagree with lists: allocated %d/%d, free %d/%d", s.Allocated, allocated, s.FreeUnits, free),
			Offset:  -1,
			Details: map[string]interface{}{
				"allocated":     allocated,
				"reportedAlloc": s.Allocated,
				"free":          free,
				"reportedFree":  s.FreeUnits,
			},
		}
	}

	if allocated+free != s.Total {
		return &ValidationError{
			Type:    "Conservation",
			Message: fmt.Sprintf("allocated %d + free %d != total %d", allocated, free, s.Total),
			Offset:  -1,
			Details: map[string]interface{}{
				"allocated": allocated,
				"free":      free,
				"total":     s.Total,
			},
		}
	}

	return nil
}

// FreeRuns checks that free runs are non-empty, in bounds, strictly ascending
// and never touching. Touching runs mean a missed coalesce.
func FreeRuns(s alloc.Snapshot) error {
	for i, r := range s.Free {
		if r.Size <= 0 {
			return &ValidationError{
				Type:    "FreeRuns",
				Message: fmt.Sprintf("run %d has non-positive size %d", i, r.Size),
				Offset:  r.Start,
			}
		}
		if r.Start < 0 || r.End() > s.Total {
			return &ValidationError{
				Type:    "FreeRuns",
				Message: fmt.Sprintf("run %d [%d,%d) outside [0,%d)", i, r.Start, r.End(), s.Total),
				Offset:  r.Start,
			}
		}
		if i == 0 {
			continue
		}

		prev := s.Free[i-1]
		switch {
		case prev.End() > r.Start:
			return &ValidationError{
				Type:    "FreeRuns",
				Message: fmt.Sprintf("runs %d and %d overlap or are out of order", i-1, i),
				Offset:  r.Start,
				Details: map[string]interface{}{"prevEnd": prev.End(), "start": r.Start},
			}
		case prev.End() == r.Start:
			return &ValidationError{
				Type:    "FreeRuns",
				Message: fmt.Sprintf("runs %d and %d are adjacent (not coalesced)", i-1, i),
				Offset:  r.Start,
			}
		}
	}
	return nil
}

// Blocks checks block bounds, reference counts and owners, and that no block
// overlaps another block or a free run.
func Blocks(s alloc.Snapshot) error {
	seen := make(map[string]int)

	for i, b := range s.Blocks {
		if b.Size <= 0 {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block %d has non-positive size %d", i, b.Size),
				Offset:  b.Start,
			}
		}
		if b.Start < 0 || b.End() > s.Total {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block %d [%d,%d) outside [0,%d)", i, b.Start, b.End(), s.Total),
				Offset:  b.Start,
			}
		}
		if len(b.Owners) == 0 || b.RefCount != len(b.Owners) {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("block %d refCount %d with %d owners", i, b.RefCount, len(b.Owners)),
				Offset:  b.Start,
				Details: map[string]interface{}{"refCount": b.RefCount, "owners": b.Owners},
			}
		}
		for _, name := range b.Owners {
			if other, dup := seen[name]; dup {
				return &ValidationError{
					Type:    "Blocks",
					Message: fmt.Sprintf("name %q owns blocks %d and %d", name, other, i),
					Offset:  b.Start,
				}
			}
			seen[name] = i
		}
	}

	type span struct {
		start, end int
		what       string
	}
	spans := make([]span, 0, len(s.Blocks)+len(s.Free))
	for i, b := range s.Blocks {
		spans = append(spans, span{b.Start, b.End(), fmt.Sprintf("block %d", i)})
	}
	for i, r := range s.Free {
		spans = append(spans, span{r.Start, r.End(), fmt.Sprintf("free run %d", i)})
	}
	slices.SortFunc(spans, func(a, b span) int { return cmp.Compare(a.start, b.start) })

	for i := 1; i < len(spans); i++ {
		if spans[i-1].end > spans[i].start {
			return &ValidationError{
				Type:    "Blocks",
				Message: fmt.Sprintf("%s overlaps %s", spans[i-1].what, spans[i].what),
				Offset:  spans[i].start,
			}
		}
	}
	return nil
}

// NameIndex checks that every owner in s resolves to its block's start and
// that the index holds no other names.
func NameIndex(st State, s alloc.Snapshot) error {
	owners := 0
	for i, b := range s.Blocks {
		for _, name := range b.Owners {
			owners++
			got, ok := st.Lookup(name)
			if !ok {
				return &ValidationError{
					Type:    "NameIndex",
					Message: fmt.Sprintf("owner %q of block %d is not indexed", name, i),
					Offset:  b.Start,
				}
			}
			if got != b.Start {
				return &ValidationError{
					Type:    "NameIndex",
					Message: fmt.Sprintf("owner %q resolves to %d, block starts at %d", name, got, b.Start),
					Offset:  b.Start,
					Details: map[string]interface{}{"indexed": got, "start": b.Start},
				}
			}
		}
	}

	if n := st.Names(); n != owners {
		return &ValidationError{
			Type:    "NameIndex",
			Message: fmt.Sprintf("index holds %d names, blocks have %d owners", n, owners),
			Offset:  -1,
		}
	}
	return nil
}

// Occupancy checks the per-unit bitmap against the block list.
func Occupancy(st State, s alloc.Snapshot) error {
	want := make([]bool, s.Total)
	for _, b := range s.Blocks {
		for u := b.Start; u < b.End() && u < s.Total; u++ {
			want[u] = true
		}
	}

	for u, w := range want {
		if got := st.Occupied(u); got != w {
			return &ValidationError{
				Type:    "Occupancy",
				Message: fmt.Sprintf("bitmap says %v, blocks say %v", got, w),
				Offset:  u,
			}
		}
	}
	return nil
}
