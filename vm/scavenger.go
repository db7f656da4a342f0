package vm

// RootSource is implemented by anything the scavenger must treat as a
// source of process-pointer roots: live stacks, a process's port list,
// and its other process-local slots. Program pointers
// held by a process are visited too (code is immutable, but the
// pointer to it must still be retargeted if the *program* GC, not this
// one, has moved it in the same pause) — ForEachPointer already treats
// both directions uniformly since, in this simulation, Values don't
// distinguish which heap they reference.
type RootSource interface {
	VisitProcessPointers(visit func(get func() Value, set func(Value)))
}

// ScavengeStats summarizes one scavenger cycle, reported to telemetry
// and used by the caller to decide whether to also trigger an old-space
// GC.
type ScavengeStats struct {
	Survivors       int
	Promoted        int
	BytesCopied     int
	TriggerOldSpace bool
}

// Scavenge runs one new-space GC cycle over heap, rooted at processes'
// pointers and rs's remembered set. Program.stackChain is not visited
// as a root.
func Scavenge(heap *Heap, rs *RememberedSet, weak *WeakRefRegistry, processes []RootSource, cfg Config) ScavengeStats {
	from := heap.New.Reset()
	fromSet := make(map[*HeapObject]bool, len(from))
	for _, h := range from {
		fromSet[h] = true
	}

	var grey []*HeapObject
	promoted := 0

	forward := func(target *HeapObject) *HeapObject {
		target = target.Follow()
		if !fromSet[target] {
			return target
		}
		if target.forward != nil {
			return target.forward
		}
		clone := cloneHeapObject(target)
		clone.age = target.age + 1
		if clone.age >= cfg.PromotionAge {
			heap.Old.Adopt(clone)
			promoted++
		} else {
			heap.New.adopt(clone)
		}
		target.forward = clone
		grey = append(grey, clone)
		return clone
	}

	fixup := func(get func() Value, set func(Value)) {
		v := get()
		if !v.IsHeapObject() {
			return
		}
		obj := v.Object()
		moved := forward(obj)
		if moved != obj {
			set(moved.ToValue())
		}
	}

	// Step 2: roots.
	for _, p := range processes {
		p.VisitProcessPointers(fixup)
	}

	// Step 2 (remembered set): every old->new pointer is a root too.
	for _, card := range rs.Cards() {
		card.ForEachPointer(fixup)
	}

	// Step 3: drain the grey queue, scanning newly copied/promoted
	// objects for further from-space references. Remembered-set
	// processing is interleaved with the drain: in this single-threaded
	// collector that reduces to "processed before the grey queue is
	// declared empty", which the loop below already guarantees since
	// promotion during draining can itself enqueue new remembered-set
	// entries.
	for len(grey) > 0 {
		obj := grey[len(grey)-1]
		grey = grey[:len(grey)-1]
		obj.ForEachPointer(fixup)
		if heap.Old.Contains(obj) {
			obj.ForEachPointer(func(get func() Value, set func(Value)) {
				v := get()
				if v.IsHeapObject() && heap.New.Contains(v.Object()) {
					rs.Record(obj)
				}
			})
		}
	}

	// Step 4: weak pointers and ports.
	weak.ProcessAfterMark(func(h *HeapObject) bool {
		h = h.Follow()
		return !fromSet[h] || h.forward != nil
	})
	weak.Relink()

	// Drop now-stale remembered-set entries whose container no longer
	// references new space. The remaining cards are old-space containers,
	// which a scavenge does not move, so they are kept as they are.
	for _, card := range rs.Cards() {
		stillPointsIntoNew := false
		card.ForEachPointer(func(get func() Value, set func(Value)) {
			v := get()
			if v.IsHeapObject() && heap.New.Contains(v.Object()) {
				stillPointsIntoNew = true
			}
		})
		if !stillPointsIntoNew {
			rs.Drop(card)
		}
	}

	survivors := len(heap.New.Objects())
	trigger := promoted > heap.Old.BudgetWords()/(cfg.ChunkWords+1) // coarse: many promotions this cycle
	return ScavengeStats{
		Survivors:       survivors,
		Promoted:        promoted,
		BytesCopied:     heap.New.UsedWords(),
		TriggerOldSpace: trigger || heap.Old.NeedsGC(),
	}
}

// cloneHeapObject makes a shallow copy of an object's payload fields,
// the "copy" step of the copying collector. The clone starts with no
// forwarding pointer of its own; the caller installs one on the
// original, not the clone.
func cloneHeapObject(h *HeapObject) *HeapObject {
	clone := &HeapObject{
		kind:       h.kind,
		classVal:   h.classVal,
		identity:   h.identity,
		age:        h.age,
		portClosed: h.portClosed,
	}
	if h.words != nil {
		clone.words = append([]Value(nil), h.words...)
	}
	if h.bytes != nil {
		clone.bytes = append([]byte(nil), h.bytes...)
	}
	if h.units != nil {
		clone.units = append([]uint16(nil), h.units...)
	}
	clone.f64 = h.f64
	clone.big = h.big
	clone.length = h.length
	if h.cls != nil {
		c := *h.cls
		c.methods = append([]Value(nil), h.cls.methods...)
		clone.cls = &c
	}
	if h.fn != nil {
		f := *h.fn
		f.bytecode = append([]byte(nil), h.fn.bytecode...)
		f.literals = append([]Value(nil), h.fn.literals...)
		clone.fn = &f
	}
	if h.st != nil {
		s := *h.st
		s.frames = append([]frame(nil), h.st.frames...)
		for i := range s.frames {
			s.frames[i].slots = append([]Value(nil), h.st.frames[i].slots...)
		}
		clone.st = &s
	}
	return clone
}
