package cell

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Generational layout constants, sized as the reference interpreter sizes
// them: a quarter-million cells per young semispace, one cell short of
// that per old chunk (so a chunk plus its Next link-free header stays a
// round allocation), and promotion after two minor survivals.
const (
	YoungSize     = 256 * 1024
	HeapChunkSize = 256*1024 - 1
	AgeMax        = 2

	initialMarkStackSize = 64 * 1024
)

// HeapChunk is one block of the old generation's free-list-managed
// storage. Free cells within a chunk are threaded through their own L
// field onto Heap.freeList.
type HeapChunk struct {
	Cells [HeapChunkSize]Cell
	Next  *HeapChunk
}

// Heap owns every cell the interpreter allocates: the two young
// semispaces, the old chunk list, and the GC bookkeeping. A Heap is not
// safe for concurrent use — the evaluator that drives it is
// single-threaded by design (spec.md §5).
type Heap struct {
	young1, young2 []Cell
	freePtr        int // index into the active young slice
	youngEnd       int // == len(active)
	activeIsYoung1 bool

	oldArea  *HeapChunk
	freeList *Cell
	observer Observer

	minorGCCount atomic.Uint64
	majorGCCount atomic.Uint64
	gcTimeNanos  atomic.Uint64

	// Atoms holds the nine shared, immortal atomic combinator cells the
	// parser hands out as singletons.
	Atoms Atoms
}

// Atoms is the set of shared nullary combinator cells. Every reference to
// one of these combinators in a parsed program points at the same Cell.
type Atoms struct {
	I, K, S, V, D, C, E, At, Pipe *Cell
}

// New creates a heap with one populated old chunk and the shared atoms
// already allocated, ready for parsing.
func New() *Heap {
	h := &Heap{
		young1:   make([]Cell, YoungSize),
		young2:   make([]Cell, YoungSize),
		observer: noopObserver{},
	}
	h.activeIsYoung1 = true
	h.youngEnd = YoungSize
	h.freePtr = 0
	h.grow()

	h.Atoms = Atoms{
		I:    h.AllocOld(I, nil, nil),
		K:    h.AllocOld(K, nil, nil),
		S:    h.AllocOld(S, nil, nil),
		V:    h.AllocOld(V, nil, nil),
		D:    h.AllocOld(D, nil, nil),
		C:    h.AllocOld(C, nil, nil),
		E:    h.AllocOld(E, nil, nil),
		At:   h.AllocOld(AT, nil, nil),
		Pipe: h.AllocOld(PIPE, nil, nil),
	}
	return h
}

func (h *Heap) active() []Cell {
	if h.activeIsYoung1 {
		return h.young1
	}
	return h.young2
}

func (h *Heap) idle() []Cell {
	if h.activeIsYoung1 {
		return h.young2
	}
	return h.young1
}

// grow appends one old-generation chunk and threads its cells onto the
// free list. Called when the parser needs old storage and none remains,
// or after a major collection fails to free enough of the old generation.
func (h *Heap) grow() {
	chunk := &HeapChunk{Next: h.oldArea}
	h.oldArea = chunk
	for i := 0; i < HeapChunkSize-1; i++ {
		chunk.Cells[i].L = &chunk.Cells[i+1]
	}
	chunk.Cells[HeapChunkSize-1].L = h.freeList
	h.freeList = &chunk.Cells[0]
}

// NewCell bump-allocates a binary-child cell in the active young region.
// Callers must have already checked a GC safe-point (NeedsGC) before
// calling; the fast path here never collects.
func (h *Heap) NewCell(t Tag, l, r *Cell) *Cell {
	c := &h.active()[h.freePtr]
	h.freePtr++
	c.Tag, c.Age, c.L, c.R = t, 0, l, r
	return c
}

// NewCell1 bump-allocates a single-child cell.
func (h *Heap) NewCell1(t Tag, l *Cell) *Cell {
	c := &h.active()[h.freePtr]
	h.freePtr++
	c.Tag, c.Age, c.L, c.R = t, 0, l, nil
	return c
}

// NewCell0 bump-allocates a leaf cell.
func (h *Heap) NewCell0(t Tag) *Cell {
	c := &h.active()[h.freePtr]
	h.freePtr++
	c.Tag, c.Age, c.L, c.R = t, 0, nil, nil
	return c
}

// NeedsGC reports whether the active young region cannot satisfy margin+1
// further allocations without a minor collection (margin 0 before a
// single-cell allocation, 1 at the apply safe-point, which may allocate
// two cells).
func (h *Heap) NeedsGC(margin int) bool {
	return h.freePtr+margin >= h.youngEnd
}

// AllocOld allocates a cell directly from the old generation's free list,
// growing the heap by one chunk first if the list is empty. Used by the
// parser, which materializes an immortal program tree, and by New for the
// shared atoms. Promotion during a minor collection does not go through
// here: copyCell takes cells off the free list itself and never grows the
// heap.
func (h *Heap) AllocOld(t Tag, l, r *Cell) *Cell {
	if h.freeList == nil {
		h.grow()
	}
	c := h.freeList
	h.freeList = h.freeList.L
	c.Tag = t
	c.Age = AgeMax + 1
	c.Marked = false
	c.L, c.R = l, r
	return c
}

// ErrOutOfMemory is the error value for host-allocator exhaustion. Nothing
// in this module returns it: heap growth has no failure path, and Go's
// allocator panics on true exhaustion, which nothing here recovers.
var ErrOutOfMemory = errors.New("out of memory")

// FatalError marks a condition spec.md §7 classifies as fatal: parse
// errors, I/O errors, resource errors, and internal invariant violations
// (the last tagged [BUG] in their message, matching the reference
// interpreter's errexit convention).
type FatalError struct {
	cause error
}

func (e *FatalError) Error() string { return e.cause.Error() }
func (e *FatalError) Unwrap() error { return e.cause }

// Fatalf wraps a formatted message as a FatalError.
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{cause: errors.Errorf(format, args...)}
}

// Bugf wraps an internal-invariant violation, labeled as the reference
// interpreter labels its own impossible-state traps.
func Bugf(format string, args ...interface{}) error {
	return &FatalError{cause: errors.Errorf("[BUG] "+format, args...)}
}

// Stats is a point-in-time snapshot of the GC counters, read by
// pkg/stats after a run completes.
type Stats struct {
	MinorGCCount uint64
	MajorGCCount uint64
	GCTimeNanos  uint64
}

// StatsSnapshot returns the current GC counters.
func (h *Heap) StatsSnapshot() Stats {
	return Stats{
		MinorGCCount: h.minorGCCount.Load(),
		MajorGCCount: h.majorGCCount.Load(),
		GCTimeNanos:  h.gcTimeNanos.Load(),
	}
}
