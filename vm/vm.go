package vm

// This file is the package's external interface: the small set of
// entry points the bytecode interpreter, the snapshot writer, and the
// debugger's session protocol call into. Everything behind it —
// Scavenge, CollectOldSpace, PerformProgramGC, the breakpoint table —
// is reachable directly for tests and for callers that need finer
// control, but a normal embedder only needs what's here.

// Allocate is the allocator's slow-path contract: attempt a direct
// allocation, and on exhaustion run a new-space collection (plus an
// old-space collection if the scavenger's heuristic calls for one)
// before retrying once. A second failure is OutOfMemory: proc (if
// non-nil) is marked allocation-failed and scheduled for deletion with
// an uncaught-exception signal, and FailureObject is returned so the
// caller can unwind without touching it.
func (prog *Program) Allocate(proc *Process, obj *HeapObject) *HeapObject {
	if h := prog.ProcessHeap.Allocate(obj); h != FailureObject {
		return h
	}

	if stats := prog.CollectNewSpace(); stats.TriggerOldSpace {
		prog.CollectOldSpace()
	}

	if h := prog.ProcessHeap.Allocate(obj); h != FailureObject {
		return h
	}

	if proc != nil {
		proc.markAllocationFailed()
		ScheduleProcessForDeletion(prog, proc, SignalUncaughtException)
	}
	return FailureObject
}

// WriteBarrier records container in the remembered set when it lives in
// old space and value points into new space. Called by every
// bytecode instruction that stores a Value into an already-allocated
// object's slot.
func (prog *Program) WriteBarrier(container *HeapObject, value Value) {
	WriteBarrier(prog.ProcessHeap, prog.Remembered, container, value)
}

// ShouldBreak reports whether the interpreter's dispatch loop should
// trap before executing the instruction at bcp with the given stack
// height.
func (prog *Program) ShouldBreak(bcp uintptr, stackHeight int) bool {
	return prog.Debug.ShouldBreak(bcp, stackHeight)
}

// IterateRoots calls visit once for every process-pointer root the
// interpreter's process holds (its stack and port list), in the same
// get/set shape every other visitor in this package uses. It is the
// hook a process's own save/restore or foreign-pointer-scan code uses
// without reaching into Process's unexported fields.
func IterateRoots(proc *Process, visit func(get func() Value, set func(Value))) {
	proc.VisitProcessPointers(visit)
}

// dataRoots collects every process-pointer root source for a data GC:
// the live processes plus the breakpoint table, whose step-over entries
// hold coroutine (process) pointers that must survive and be retargeted
// by data GCs just like any process root.
func (prog *Program) dataRoots() []RootSource {
	return append(prog.Processes.RootSources(), prog.Debug)
}

// CollectNewSpace runs one scavenger cycle over the process heap,
// visiting every live process as a root source. The process list is
// copied under its lock; the lock is not held while the scavenge runs.
// If telemetry is attached, the cycle is recorded;
// a recording failure is logged, not propagated, since losing a
// telemetry row must never block the collector it's reporting on.
func (prog *Program) CollectNewSpace() ScavengeStats {
	stats := Scavenge(prog.ProcessHeap, prog.Remembered, prog.Weak, prog.dataRoots(), prog.Config)
	if prog.Telemetry != nil {
		if err := prog.Telemetry.RecordScavenge(stats); err != nil {
			log.Warningf("%s", err)
		}
	}
	return stats
}

// CollectOldSpace runs one old-space GC cycle, alternating sweep and
// compaction. Recording behaves as CollectNewSpace's.
func (prog *Program) CollectOldSpace() OldSpaceGCStats {
	stats := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, prog.dataRoots(), prog.Config)
	if prog.Telemetry != nil {
		if err := prog.Telemetry.RecordOldSpaceGC(stats); err != nil {
			log.Warningf("%s", err)
		}
	}
	return stats
}

// PrepareProgramGC is a no-op hook kept for symmetry with
// FinishProgramGC: the program GC's own precise pre-pass
// already does everything a caller would otherwise need to do before
// calling PerformProgramGC.
func (prog *Program) PrepareProgramGC() {}

// PerformProgramGC runs the program GC's full 7-step protocol
// and records it to telemetry, as CollectNewSpace/CollectOldSpace do.
func (prog *Program) PerformProgramGC(snapshot bool) ProgramGCStats {
	stats := PerformProgramGC(prog, snapshot)
	if prog.Telemetry != nil {
		if err := prog.Telemetry.RecordProgramGC(stats); err != nil {
			log.Warningf("%s", err)
		}
	}
	return stats
}

// FinishProgramGC re-derives the program's exit-kind-independent
// invariants that only matter once control returns to the interpreter:
// currently just a root-spacing check, kept as its own step so a future
// caller-visible postcondition has somewhere to live without touching
// PerformProgramGC's own internal ordering.
func (prog *Program) FinishProgramGC() {
	prog.VerifyRootSpacing()
}

// EnsureDebuggerAttached lazily creates the program's breakpoint table.
// NewProgram already allocates one, so this is idempotent and exists
// only so a session layer that attaches lazily has a stable call to
// make regardless of whether a debugger was ever requested.
func (prog *Program) EnsureDebuggerAttached() *DebugInfo {
	prog.mu.Lock()
	defer prog.mu.Unlock()
	if prog.Debug == nil {
		prog.Debug = NewDebugInfo()
	}
	return prog.Debug
}
