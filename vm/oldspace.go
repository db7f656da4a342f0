package vm

import "sync"

// OldSpace holds mature objects: survivors promoted by the scavenger
// and objects allocated directly because they exceeded the large-object
// threshold.
//
// A real mark-sweep/mark-compact collector needs a segregated free
// list, a mark-bit vector, and an object-start table so an arbitrary
// interior address can be resolved back to its containing object's
// start during compaction and remembered-set replay. Because this
// simulation addresses objects by their own Go pointer identity rather
// than by a computed byte offset, "find the object that starts in this
// card" and "is this word marked" both degenerate to direct map lookups
// keyed by *HeapObject — there is no separate bitmap to get out of sync
// with the objects it describes. Mark state lives on HeapObject.marked
// itself, matching how the header's mark/age bits are described as
// "packed into the unused low bits" of a real header — here they
// are simply fields of the same struct instead of bits of the same word.
type OldSpace struct {
	mu sync.Mutex

	objects []*HeapObject
	index   map[*HeapObject]int // object -> its index in objects, for O(1) removal

	budgetWords         int
	usedAfterLastGC     int
	lastCycleWasCompact bool
	hasRunCycle         bool
}

// NewOldSpace creates an empty old space with the given word budget.
func NewOldSpace(budgetWords int) *OldSpace {
	return &OldSpace{
		objects:     nil,
		index:       make(map[*HeapObject]int),
		budgetWords: budgetWords,
	}
}

// Adopt adds h to old space unconditionally — used both for promotion
// out of the scavenger and for large-object allocation straight into
// old space.
func (o *OldSpace) Adopt(h *HeapObject) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.index[h] = len(o.objects)
	o.objects = append(o.objects, h)
}

// Remove deletes h from old space's live list — used by the sweeper
// once it determines h is unreachable.
func (o *OldSpace) Remove(h *HeapObject) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i, ok := o.index[h]
	if !ok {
		return
	}
	last := len(o.objects) - 1
	o.objects[i] = o.objects[last]
	o.index[o.objects[i]] = i
	o.objects = o.objects[:last]
	delete(o.index, h)
}

// Contains reports whether h is currently live in old space.
func (o *OldSpace) Contains(h *HeapObject) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.index[h]
	return ok
}

// Objects returns old space's live objects. Callers must not mutate the
// returned slice.
func (o *OldSpace) Objects() []*HeapObject {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.objects
}

// UsedWords sums the Size() of every live object, recomputed on demand
// rather than tracked incrementally since compaction and sweep both
// change the live set in bulk.
func (o *OldSpace) UsedWords() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, h := range o.objects {
		total += h.Size()
	}
	return total
}

// NeedsGC reports whether old space has grown enough since the last
// cycle to justify another one, based on the used-after-last-GC
// watermark.
func (o *OldSpace) NeedsGC() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	used := 0
	for _, h := range o.objects {
		used += h.Size()
	}
	return used > o.usedAfterLastGC+o.budgetWords/2
}

// recordCycle stores the post-GC used total and widens the budget if
// the pointless-GC heuristic determines the last compaction made
// too little progress to be worth repeating at the current budget. It
// reports whether the budget was widened, for callers that surface GC
// telemetry.
func (o *OldSpace) recordCycle(usedAfterGC int, wasCompact bool, minProgressRatio float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	widened := false
	if wasCompact && o.hasRunCycle {
		progress := 0.0
		if o.usedAfterLastGC > 0 {
			progress = float64(o.usedAfterLastGC-usedAfterGC) / float64(o.usedAfterLastGC)
		}
		if progress < minProgressRatio {
			o.budgetWords += o.budgetWords / 4
			widened = true
			log.Debugf("oldspace: widening budget to %d words after low-progress compaction", o.budgetWords)
		}
	}
	o.usedAfterLastGC = usedAfterGC
	o.lastCycleWasCompact = wasCompact
	o.hasRunCycle = true
	return widened
}

// BudgetWords returns the space's current word budget.
func (o *OldSpace) BudgetWords() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.budgetWords
}
