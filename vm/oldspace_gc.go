package vm

// OldSpaceGCStats reports one old-space collection cycle.
type OldSpaceGCStats struct {
	WasCompact bool
	Marked     int
	Swept      int
	UsedAfter  int
	Widened    bool // budget was widened after a low-progress compaction
}

// CollectOldSpace runs one old-space GC cycle, alternating between
// sweep-only and compact based on the previous cycle: sweep
// follows compact, compact follows sweep.
//
// processes are the same root sources the scavenger uses. Marking also
// treats remembered-set cards as roots and walks through new-space
// neighbours, since a new-space object can hold the only live reference
// to an old-space object.
func CollectOldSpace(heap *Heap, rs *RememberedSet, weak *WeakRefRegistry, processes []RootSource, cfg Config) OldSpaceGCStats {
	compact := heap.Old.hasRunCycle && !heap.Old.lastCycleWasCompact

	marked := markOldSpace(heap, rs, processes)

	isLive := func(h *HeapObject) bool {
		h = h.Follow()
		return heap.New.Contains(h) || marked[h]
	}
	weak.ProcessAfterMark(isLive)

	var stats OldSpaceGCStats
	stats.WasCompact = compact
	stats.Marked = len(marked)

	if compact {
		husks := compactOldSpace(heap, marked, processes, rs)

		// The remembered set keys cards by container identity, and
		// compaction just replaced every surviving container; re-key
		// each card to its compacted copy before the forwarding
		// pointers that connect them are discarded.
		for _, card := range rs.Cards() {
			if card.IsForwarded() {
				rs.Drop(card)
				rs.Record(card.Follow())
			}
		}
		weak.Relink()
		for _, h := range husks {
			h.forward = nil
		}
	} else {
		sweepOldSpace(heap, marked, &stats)
	}

	for h := range marked {
		h.marked = false
	}

	stats.UsedAfter = heap.Old.UsedWords()
	stats.Widened = heap.Old.recordCycle(stats.UsedAfter, compact, cfg.CompactionMinProgress)
	log.Debugf("oldspace gc: compact=%v marked=%d swept=%d used_after=%d", stats.WasCompact, stats.Marked, stats.Swept, stats.UsedAfter)
	return stats
}

// markOldSpace performs tri-color marking with an explicit worklist:
// grey roots, then drain, visiting both old-space and new-space
// neighbours (new-space objects are never swept here, but must still be
// walked so old objects they keep alive are found).
func markOldSpace(heap *Heap, rs *RememberedSet, processes []RootSource) map[*HeapObject]bool {
	marked := make(map[*HeapObject]bool)
	var grey []*HeapObject

	mark := func(h *HeapObject) {
		h = h.Follow()
		if h == nil || marked[h] {
			return
		}
		marked[h] = true
		h.marked = true
		grey = append(grey, h)
	}

	visit := func(get func() Value, set func(Value)) {
		v := get()
		if v.IsHeapObject() {
			mark(v.Object())
		}
	}

	for _, p := range processes {
		p.VisitProcessPointers(visit)
	}
	for _, card := range rs.Cards() {
		mark(card)
	}

	for len(grey) > 0 {
		h := grey[len(grey)-1]
		grey = grey[:len(grey)-1]
		h.ForEachPointer(visit)
	}
	return marked
}

// sweepOldSpace removes every unmarked object from old space's live
// list, rebuilding the free list implicitly (this simulation has no
// byte-range free list to rebuild; removing the object from the live
// set is the whole of "freeing" it, and Go's own allocator reclaims the
// backing memory once nothing else holds a reference).
func sweepOldSpace(heap *Heap, marked map[*HeapObject]bool, stats *OldSpaceGCStats) {
	for _, h := range append([]*HeapObject(nil), heap.Old.Objects()...) {
		if !marked[h] {
			heap.Old.Remove(h)
			stats.Swept++
		}
	}
}

// compactOldSpace packs the surviving objects toward the front of old
// space's list, preserving relative order, then fixes up every pointer
// in the heap and in process roots to the new addresses. It
// returns the replaced originals, still carrying their forwarding
// pointers, so the caller can finish any identity-keyed relinking
// (remembered set, weak references) before severing them.
//
// "Packing toward chunk starts" in a byte-addressed collector becomes,
// here, replacing each survivor with a fresh clone and forwarding the
// original to it — identical machinery to the scavenger's copy step,
// which is also how real mark-compact collectors are frequently
// implemented (Lisp2-style forwarding rather than in-place sliding).
func compactOldSpace(heap *Heap, marked map[*HeapObject]bool, processes []RootSource, rs *RememberedSet) []*HeapObject {
	survivors := make([]*HeapObject, 0, len(marked))
	for _, h := range heap.Old.Objects() {
		if marked[h] {
			survivors = append(survivors, h)
		}
	}

	compacted := make([]*HeapObject, len(survivors))
	for i, h := range survivors {
		clone := cloneHeapObject(h)
		h.forward = clone
		compacted[i] = clone
	}

	fixup := func(get func() Value, set func(Value)) {
		v := get()
		if !v.IsHeapObject() {
			return
		}
		obj := v.Object()
		if moved := obj.Follow(); moved != obj {
			set(moved.ToValue())
		}
	}

	for _, c := range compacted {
		c.ForEachPointer(fixup)
	}
	for _, h := range heap.New.Objects() {
		h.ForEachPointer(fixup)
	}
	for _, p := range processes {
		p.VisitProcessPointers(fixup)
	}
	for _, card := range rs.Cards() {
		card.ForEachPointer(fixup)
	}

	heap.Old.mu.Lock()
	heap.Old.objects = compacted
	heap.Old.index = make(map[*HeapObject]int, len(compacted))
	for i, h := range compacted {
		heap.Old.index[h] = i
	}
	heap.Old.mu.Unlock()

	return survivors
}
