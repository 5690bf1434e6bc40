package cell

import "time"

// Observer receives diagnostic events from the collector. main.go always
// wires pkg/stats.Reporter in here, and the Reporter filters events by
// verbosity; passing nil to SetObserver installs a no-op observer.
type Observer interface {
	MinorGC(survivors int)
	MajorGC(freed, total int)
}

// noopObserver discards every event. New installs it, and SetObserver
// substitutes it for nil; callers that want GC diagnostics replace it
// through SetObserver after construction.
var _ Observer = (*noopObserver)(nil)

type noopObserver struct{}

func (noopObserver) MinorGC(int)      {}
func (noopObserver) MajorGC(int, int) {}

// SetObserver installs the diagnostic sink used by Collect and the major
// collector it may trigger.
func (h *Heap) SetObserver(o Observer) {
	if o == nil {
		o = noopObserver{}
	}
	h.observer = o
}

// Collect runs a minor (Cheney-style copying) collection, promoting any
// cell that has survived AgeMax minor collections into the old
// generation. roots is mutated in place: every live reference the caller
// holds must appear in it, and the caller must re-read roots[i] after
// Collect returns since the cell may have moved.
//
// A minor collection may itself trigger a major collection of the old
// generation, whenever a promotion needs a free old cell and none remain.
func (h *Heap) Collect(roots []*Cell) {
	start := time.Now()

	h.activeIsYoung1 = !h.activeIsYoung1
	h.freePtr = 0
	h.youngEnd = YoungSize
	scan := 0

	for i := range roots {
		if h.freeList == nil {
			h.majorGC(roots)
		}
		if roots[i] != nil {
			roots[i] = h.copyCell(roots[i])
		}
	}

	active := h.active()
	for scan < h.freePtr {
		if h.freeList == nil {
			h.majorGC(roots)
			active = h.active()
		}
		c := &active[scan]
		if c.Tag == Copied {
			c = c.L
		}
		switch c.Tag.childSet() {
		case 1:
			c.L = h.copyCell(c.L)
		case 2:
			c.L = h.copyCell(c.L)
			if h.freeList == nil {
				h.majorGC(roots)
				active = h.active()
			}
			c.R = h.copyCell(c.R)
		}
		scan++
	}

	h.observer.MinorGC(h.freePtr)
	h.minorGCCount.Inc()
	h.gcTimeNanos.Add(uint64(time.Since(start).Nanoseconds()))
}

// copyCell relocates c per spec.md §4.1's copy(c) semantics. Children are
// not recursively copied here; the Collect scan loop reaches them, which
// decouples recursion depth from graph depth.
func (h *Heap) copyCell(c *Cell) *Cell {
	if c == nil {
		return nil
	}
	if c.Tag == Copied {
		return c.L
	}
	if c.Age > AgeMax {
		return c // already in old space
	}

	var r *Cell
	if c.Age == AgeMax {
		// Promote: take a cell from the old free list, copy the payload
		// there, and leave a forwarding stub in to-space so the scan
		// loop still visits (and relocates) this cell's children.
		r = h.freeList
		h.freeList = h.freeList.L

		active := h.active()
		stub := &active[h.freePtr]
		h.freePtr++
		stub.Tag = Copied
		stub.L = r
	} else {
		active := h.active()
		r = &active[h.freePtr]
		h.freePtr++
	}
	*r = *c
	r.Age++
	c.Tag = Copied
	c.L = r
	return r
}
