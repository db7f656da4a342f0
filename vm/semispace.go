package vm

import "sync"

// SemiSpace is a chunked bump allocator, used for new space and for the
// program heap. Because every HeapObject is itself a real Go value
// tracked by the host allocator, SemiSpace does not own raw bytes; it
// owns the *bookkeeping* that makes chunk/budget/resize behaviour
// observable: how many words are "in use", whether a further
// allocation would need a new chunk, and whether that chunk is allowed
// to exist.
//
// "Address" in this simulation is an object's own Go pointer identity;
// FromHeapPointer/HeapPointer tag and untag it exactly as they would a
// real address, so nothing elsewhere in the package needs to know that
// SemiSpace isn't managing byte ranges directly.
type SemiSpace struct {
	mu sync.Mutex

	name       string
	chunkWords int
	chunks     int // number of chunks currently acquired
	maxChunks  int // 0 means unbounded
	canResize  bool

	objects []*HeapObject // bump order; index 0 is oldest allocation
	used    int           // words consumed by objects

	noFailureDepth int
}

// NewSemiSpace creates an empty space with room for initialChunks
// chunks of chunkWords words each. maxChunks bounds growth; 0 means
// growth is limited only by canResize.
func NewSemiSpace(name string, chunkWords, initialChunks, maxChunks int) *SemiSpace {
	return &SemiSpace{
		name:       name,
		chunkWords: chunkWords,
		chunks:     initialChunks,
		maxChunks:  maxChunks,
		canResize:  true,
	}
}

// CanResize reports whether the space is currently allowed to acquire a
// new chunk on a failed bump allocation.
func (s *SemiSpace) CanResize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canResize
}

// SetCanResize toggles growth. A program heap past initialization, or a
// new space mid-scavenge, typically pins this false to make budget
// exhaustion deterministic rather than silently growing.
func (s *SemiSpace) SetCanResize(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canResize = v
}

// capacityWords returns the total word budget across acquired chunks.
func (s *SemiSpace) capacityWords() int {
	return s.chunks * s.chunkWords
}

// EnterNoAllocationFailureScope marks entry into a region where
// allocation must not fail; Allocate grows the space rather than report
// failure while the depth is > 0, even when resizing is disabled or
// maxChunks is already reached.
func (s *SemiSpace) EnterNoAllocationFailureScope() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noFailureDepth++
}

// ExitNoAllocationFailureScope ends the innermost no-failure scope.
func (s *SemiSpace) ExitNoAllocationFailureScope() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noFailureDepth == 0 {
		panic("vm: ExitNoAllocationFailureScope without matching Enter")
	}
	s.noFailureDepth--
}

// Allocate records h as newly allocated in this space, growing the
// chunk count if the bump pointer would otherwise overrun and the space
// can resize. It returns false (and leaves h out of the space) if the
// space is exhausted and cannot grow.
func (s *SemiSpace) Allocate(h *HeapObject) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateLocked(h)
}

func (s *SemiSpace) allocateLocked(h *HeapObject) bool {
	size := h.Size()
	if s.used+size > s.capacityWords() {
		if s.canResize || s.noFailureDepth > 0 {
			if s.maxChunks == 0 || s.chunks < s.maxChunks || s.noFailureDepth > 0 {
				needed := (s.used + size - s.capacityWords() + s.chunkWords - 1) / s.chunkWords
				if needed < 1 {
					needed = 1
				}
				s.chunks += needed
			} else {
				return false
			}
		} else {
			return false
		}
	}
	s.objects = append(s.objects, h)
	s.used += size
	return true
}

// placeDirect allocates h unconditionally, panicking if doing so would
// violate the space's own no-failure contract. Used by program setup
// (class/function/stack construction before any mutator runs), which by
// construction always runs inside a no-allocation-failure scope.
func (s *SemiSpace) placeDirect(h *HeapObject) {
	s.mu.Lock()
	s.noFailureDepth++
	ok := s.allocateLocked(h)
	s.noFailureDepth--
	s.mu.Unlock()
	if !ok {
		invariant(false, "no-allocation-failure scope violated", s.name)
	}
}

// Objects returns the space's live objects in bump order. Callers must
// not mutate the returned slice.
func (s *SemiSpace) Objects() []*HeapObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects
}

// UsedWords returns the word count currently in use.
func (s *SemiSpace) UsedWords() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Contains reports whether h is currently recorded as live in this
// space — the simulation's stand-in for an address-range check.
func (s *SemiSpace) Contains(h *HeapObject) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.objects {
		if o == h {
			return true
		}
	}
	return false
}

// Reset clears the space's object list and used counter, returning what
// was there before — the moment of a semi-space flip, where the
// from-space's contents are handed to the scavenger and the space
// becomes an empty to-space ready to receive survivors.
func (s *SemiSpace) Reset() []*HeapObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.objects
	s.objects = nil
	s.used = 0
	return old
}

// adopt appends h to the space's live list without running the capacity
// check — used by the scavenger and compactor, which have already
// accounted for h's size against the destination space's budget.
func (s *SemiSpace) adopt(h *HeapObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, h)
	s.used += h.Size()
}
