package vm

import "sync"

// RememberedSet is a duplicate-tolerant collection of cards — here,
// the old-space container objects that might hold a pointer into new
// space. Carding by aligned address range needs a linear address
// space, which this collector's objects don't occupy, so the
// container object itself stands in for its card: it is exactly the
// granularity the scavenger needs to rescan ("scan every object whose
// start lies in this card"), and it is trivially addressable without an
// object-start table.
type RememberedSet struct {
	mu    sync.Mutex
	cards map[*HeapObject]struct{}
}

// NewRememberedSet creates an empty remembered set.
func NewRememberedSet() *RememberedSet {
	return &RememberedSet{cards: make(map[*HeapObject]struct{})}
}

// Record enqueues container's card. Safe to call redundantly — the set
// tolerates duplicates by construction.
func (rs *RememberedSet) Record(container *HeapObject) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.cards[container] = struct{}{}
}

// Cards returns every recorded card.
func (rs *RememberedSet) Cards() []*HeapObject {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]*HeapObject, 0, len(rs.cards))
	for c := range rs.cards {
		out = append(out, c)
	}
	return out
}

// Drop removes container's card — called at the end of scavenge for any
// card whose object no longer references new space.
func (rs *RememberedSet) Drop(container *HeapObject) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.cards, container)
}

// Clear empties the set.
func (rs *RememberedSet) Clear() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.cards = make(map[*HeapObject]struct{})
}

// WriteBarrier must be called after every pointer store into an object
// that might live in old space, with the value just stored. If
// container is in old space and value is a new-space heap pointer, the
// store is recorded in rs so the next scavenge's remembered-set pass
// finds it.
//
// The interpreter is responsible for calling this on every pointer
// write (field stores, array/instance slots); it is not implied by
// ForEachPointer, which only traces, never barriers.
func WriteBarrier(heap *Heap, rs *RememberedSet, container *HeapObject, value Value) {
	if !value.IsHeapObject() {
		return
	}
	if !heap.Old.Contains(container) {
		return
	}
	target := value.Object()
	if heap.New.Contains(target) {
		rs.Record(container)
	}
}
