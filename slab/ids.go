package slab

import (
	"sync/atomic"

	"github.com/memomesh/memomesh/internal/b36"
)

// MaxSlabs is the process-wide slab cap: the 2-digit base-36 id
// namespace (36*36). Exceeding it fails construction.
const MaxSlabs = 1296

// liveSlabs counts slabs currently constructed in this process.
// Close releases the slot.
var liveSlabs atomic.Int32

// acquireSlabSlot reserves one of the MaxSlabs process slots.
func acquireSlabSlot() error {
	for {
		n := liveSlabs.Load()
		if n >= MaxSlabs {
			return ErrSlabCapExceeded
		}
		if liveSlabs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// releaseSlabSlot returns a slot reserved by acquireSlabSlot.
func releaseSlabSlot() {
	liveSlabs.Add(-1)
}

// validSlabID reports whether id fits the slab id namespace:
// one or two lowercase base-36 characters.
func validSlabID(id string) bool {
	return len(id) <= 2 && b36.Valid(id)
}

// GenChildID produces a slab-scoped monotonic id: the slab id, a dash,
// and a base-36 sequence number. The dash keeps ids from different
// slabs disjoint even though slab ids vary in length.
func (s *Slab) GenChildID() string {
	n := s.childSeq.Add(1)
	return s.id + "-" + b36.Encode(n)
}
