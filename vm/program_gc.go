package vm

import (
	"math/big"
	"sort"
)

// ProgramGCStats reports one program GC cycle.
type ProgramGCStats struct {
	StacksChained int
	Relocated     int
	Snapshot      bool
}

// PerformProgramGC runs the full program-GC protocol: a precise data
// pre-pass, stack chaining, cooking, a program-space scavenge,
// uncooking, and breakpoint bcp recomputation. snapshot selects the
// placement-prioritized variant used before writing a snapshot.
func PerformProgramGC(prog *Program, snapshot bool) ProgramGCStats {
	roots := prog.dataRoots()

	// Step 1: precise pre-pass — eliminate floating garbage stacks so
	// only genuinely live stacks remain to chain and cook.
	CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, roots, prog.Config)
	Scavenge(prog.ProcessHeap, prog.Remembered, prog.Weak, roots, prog.Config)

	// Step 2: chain stacks.
	chained := chainLiveStacks(prog, roots)

	// Step 3: cook stacks.
	for stack := prog.stackChain; !stack.IsNil(); stack = stack.Object().Next() {
		cookStack(stack.Object())
	}

	// Step 4: scavenge program space. The snapshot variant first boxes
	// Smis too wide for a 32-bit host into heap integers, so the heap it
	// lays out stays portable across word sizes.
	if snapshot {
		boxWideSmis(prog)
	}
	relocated := scavengeProgramSpace(prog, roots, snapshot)

	// Step 5: uncook stacks, then discard the chain.
	for stack := prog.stackChain; !stack.IsNil(); {
		h := stack.Object()
		next := h.Next()
		uncookStack(h)
		h.SetNext(Nil)
		stack = next
	}
	prog.stackChain = Nil

	// Step 6: update breakpoints.
	prog.Debug.RecomputeAfterProgramGC()

	// Step 7: verify placements.
	prog.VerifyRootSpacing()

	return ProgramGCStats{StacksChained: chained, Relocated: relocated, Snapshot: snapshot}
}

// chainLiveStacks replays the marking traversal of an old-space GC,
// linking every live Stack object it reaches into Program.stackChain.
// The walk is transitive, not root-only: a stack held
// through a coroutine object in a port list is just as live — and just
// as in need of cooking — as a process's executing stack.
func chainLiveStacks(prog *Program, roots []RootSource) int {
	prog.stackChain = Nil
	count := 0

	visited := make(map[*HeapObject]bool)
	var pending []*HeapObject
	discover := func(v Value) {
		if !v.IsHeapObject() {
			return
		}
		h := v.Object().Follow()
		if visited[h] {
			return
		}
		visited[h] = true
		pending = append(pending, h)
	}

	for _, r := range roots {
		r.VisitProcessPointers(func(get func() Value, set func(Value)) {
			discover(get())
		})
	}
	for len(pending) > 0 {
		h := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if h.Kind() == FormatStack {
			h.SetNext(prog.stackChain)
			prog.stackChain = h.ToValue()
			count++
		}
		h.ForEachPointer(func(get func() Value, set func(Value)) {
			discover(get())
		})
	}
	return count
}

// cookStack walks a stack's frames top to bottom, replacing each
// frame's live bcp with a (function, delta) pair.
func cookStack(stack *HeapObject) {
	for i := stack.Depth() - 1; i >= 0; i-- {
		fr := stack.FrameAt(i)
		fn := fr.function.Object()
		if fn == nil {
			continue
		}
		fr.Cook(fn.Follow())
	}
}

// uncookStack restores every frame's live bcp from its cooked
// (function, delta) pair.
func uncookStack(stack *HeapObject) {
	for i := 0; i < stack.Depth(); i++ {
		stack.FrameAt(i).Uncook()
	}
}

// scavengeProgramSpace moves every live program-space object into a
// fresh to-space: program roots, everything processes hold a program
// pointer to, and (indirectly, via ForEachPointer) the process heap's
// transitive program pointers. snapshot biases placement order toward
// the popularity-prioritized layout snapshots want.
func scavengeProgramSpace(prog *Program, roots []RootSource, snapshot bool) int {
	from := prog.ProgramSpace.Reset()
	fromSet := make(map[*HeapObject]bool, len(from))
	for _, h := range from {
		fromSet[h] = true
	}

	prog.ProgramSpace.EnterNoAllocationFailureScope()
	defer prog.ProgramSpace.ExitNoAllocationFailureScope()

	var order []*HeapObject
	if snapshot {
		order = snapshotPlacementOrder(prog, from)
	} else {
		order = from
	}

	relocated := 0
	var grey []*HeapObject

	forward := func(target *HeapObject) *HeapObject {
		target = target.Follow()
		if !fromSet[target] {
			return target
		}
		if target.forward != nil {
			return target.forward
		}
		clone := cloneHeapObject(target)
		prog.ProgramSpace.placeDirect(clone)
		target.forward = clone
		relocated++
		grey = append(grey, clone)
		return clone
	}

	fixup := func(get func() Value, set func(Value)) {
		v := get()
		if !v.IsHeapObject() {
			return
		}
		moved := forward(v.Object())
		if moved != v.Object() {
			set(moved.ToValue())
		}
	}

	// Relocate every surviving program object up front, in placement
	// order, so to-space's bump order matches order exactly; a plain
	// root-driven scavenge would place objects in whatever order the
	// roots happened to reach them, which is what a non-snapshot
	// program GC does instead (order == from, i.e. original order).
	//
	// Program space holds only code and classes, which this
	// implementation treats as always reachable once allocated — a
	// session/debugger operation that wants to reclaim a removed
	// method would need to first unlink it from every ClassTable entry
	// and root slot, at which point it is no longer in `from` via any
	// path but still appears in `from` itself since Reset() returns
	// every previously allocated object rather than a traced live set.
	// Tracing program space for liveness (as opposed to just relocating
	// it) is not implemented; see DESIGN.md.
	for _, h := range order {
		forward(h)
	}

	prog.Roots.Each(fixup)
	prog.Classes.Relink()
	prog.Debug.VisitProgramPointers(fixup)
	for _, r := range roots {
		r.VisitProcessPointers(fixup)
	}
	for _, h := range prog.ProcessHeap.New.Objects() {
		h.ForEachPointer(fixup)
	}
	for _, h := range prog.ProcessHeap.Old.Objects() {
		h.ForEachPointer(fixup)
	}

	for len(grey) > 0 {
		h := grey[len(grey)-1]
		grey = grey[:len(grey)-1]
		h.ForEachPointer(fixup)
	}

	return relocated
}

// snapshotPlacementOrder computes the placement priority for snapshot
// GC: double_class first, then null/false/true (preserving their
// required 2-word spacing), then the most-pointed-at objects, then
// everything else in original order. Ties in popularity are broken by
// encounter order, which keeps the layout deterministic.
func snapshotPlacementOrder(prog *Program, from []*HeapObject) []*HeapObject {
	popularity := countPopularity(from)

	priority := []*HeapObject{}
	seen := map[*HeapObject]bool{}
	add := func(h *HeapObject) {
		if h != nil && !seen[h] {
			seen[h] = true
			priority = append(priority, h)
		}
	}
	add(prog.Roots.DoubleClass.Object())
	add(prog.Roots.NullObject.Object())
	add(prog.Roots.FalseObject.Object())
	add(prog.Roots.TrueObject.Object())

	type scored struct {
		obj   *HeapObject
		count int
		seq   int
	}
	rest := make([]scored, 0, len(from))
	for i, h := range from {
		if seen[h] {
			continue
		}
		rest = append(rest, scored{obj: h, count: popularity[h], seq: i})
	}
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].count != rest[j].count {
			return rest[i].count > rest[j].count
		}
		return rest[i].seq < rest[j].seq
	})
	for _, s := range rest {
		priority = append(priority, s.obj)
	}
	return priority
}

// smiFitsPortable reports whether n survives re-tagging on a 32-bit
// host, where a Smi keeps 31 payload bits after the tag.
func smiFitsPortable(n int64) bool {
	return n >= -(1<<30) && n <= (1<<30)-1
}

// boxWideSmis rewrites every program-space Smi slot too wide for a
// 32-bit Smi into a boxed heap integer. Runs before the snapshot
// variant's relocation pass so the boxes participate in placement like
// any other program object.
func boxWideSmis(prog *Program) {
	objects := prog.ProgramSpace.Objects()
	for _, h := range objects {
		h.ForEachPointer(func(get func() Value, set func(Value)) {
			v := get()
			if !v.IsSmi() || smiFitsPortable(v.Smi()) {
				return
			}
			boxed := &HeapObject{
				kind:     FormatHeapInteger,
				classVal: prog.Roots.HeapIntegerClass,
				big:      big.NewInt(v.Smi()),
			}
			prog.ProgramSpace.placeDirect(boxed)
			set(boxed.ToValue())
		})
	}
}

// countPopularity tallies, for each program-space object, how many
// incoming pointers it has from other program-space objects. The tally
// feeds snapshotPlacementOrder's popularity bias.
func countPopularity(objects []*HeapObject) map[*HeapObject]int {
	counts := make(map[*HeapObject]int, len(objects))
	for _, h := range objects {
		h.ForEachPointer(func(get func() Value, set func(Value)) {
			v := get()
			if v.IsHeapObject() {
				counts[v.Object().Follow()]++
			}
		})
	}
	return counts
}
