package vm

// Heap is the process heap: a two-space new generation plus an old
// generation, shared by every process in a Program.
type Heap struct {
	New *SemiSpace
	Old *OldSpace

	cfg Config
}

// NewHeap builds a process heap sized per cfg.
func NewHeap(cfg Config) *Heap {
	return &Heap{
		New: NewSemiSpace("new", cfg.ChunkWords, cfg.NewSpaceChunks, 0),
		Old: NewOldSpace(cfg.OldSpaceBudgetWords),
		cfg: cfg,
	}
}

// FailureObject is the sentinel the allocator returns from a failed
// allocation outside a no-allocation-failure scope. Comparing
// against this value, not against nil, is how callers detect failure —
// nil legitimately denotes "no object" in several other APIs.
var FailureObject = &HeapObject{kind: FormatSpecial}

// Allocate places a freshly constructed object into the heap: new space
// by default, or directly into old space if its size is at or above the
// configured large-object threshold. new is the object to place;
// its fields should already be populated by the caller's constructor.
//
// On success it returns new unchanged. On failure (space exhausted, not
// in a no-allocation-failure scope) it returns FailureObject.
// Program.Allocate wraps this with one GC-and-retry; if the retry also
// fails it returns FailureObject again and schedules the process for
// deletion.
func (h *Heap) Allocate(obj *HeapObject) *HeapObject {
	if obj.Size() >= h.cfg.LargeObjectThreshold {
		h.Old.Adopt(obj)
		return obj
	}
	if !h.New.Allocate(obj) {
		return FailureObject
	}
	return obj
}

// AllocateOrPanic allocates obj, panicking with an
// InternalInvariantViolation if it fails. For callers (program setup,
// cook/uncook bookkeeping) that have already pre-arranged capacity and
// for whom failure is a fatal bug rather than something to retry.
func (h *Heap) AllocateOrPanic(obj *HeapObject) *HeapObject {
	h.New.EnterNoAllocationFailureScope()
	defer h.New.ExitNoAllocationFailureScope()
	result := h.Allocate(obj)
	invariant(result != FailureObject, "no-allocation-failure scope violated", "process heap")
	return result
}
