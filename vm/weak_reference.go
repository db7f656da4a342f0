package vm

import "sync"

// WeakReference lets a host object observe a HeapObject's liveness
// without keeping it alive: after any GC that could have collected
// target, Cleared reports whether it did.
type WeakReference struct {
	target    *HeapObject
	cleared   bool
	onCleared func()
}

// Get returns the referenced object, or nil if it has been cleared.
// Always call Get (rather than caching the object pointer) after a GC
// might have run: the returned pointer already reflects any forwarding.
func (w *WeakReference) Get() *HeapObject {
	if w.cleared {
		return nil
	}
	return w.target.Follow()
}

// Cleared reports whether the collector has determined the referent is
// unreachable.
func (w *WeakReference) Cleared() bool { return w.cleared }

// WeakRefRegistry tracks every live WeakReference and every open Port,
// so the scavenger and old-space collector can process them after
// marking/copying but before the from-space is discarded.
// Weak-ref and port cleanup never fail: there is nothing here for
// a caller to handle beyond the cleared flag / closed flag.
type WeakRefRegistry struct {
	mu    sync.Mutex
	refs  []*WeakReference
	ports []*HeapObject
}

// NewWeakRefRegistry creates an empty registry.
func NewWeakRefRegistry() *WeakRefRegistry {
	return &WeakRefRegistry{}
}

// NewWeakReference registers and returns a weak reference to target.
// onCleared, if non-nil, runs synchronously the moment the collector
// clears the reference — the closest analogue to a finalizer this
// package exposes; it must not allocate or touch the heap.
func (reg *WeakRefRegistry) NewWeakReference(target *HeapObject, onCleared func()) *WeakReference {
	w := &WeakReference{target: target, onCleared: onCleared}
	reg.mu.Lock()
	reg.refs = append(reg.refs, w)
	reg.mu.Unlock()
	return w
}

// TrackPort registers a Port object for end-of-GC liveness sweeping.
func (reg *WeakRefRegistry) TrackPort(port *HeapObject) {
	reg.mu.Lock()
	reg.ports = append(reg.ports, port)
	reg.mu.Unlock()
}

// ProcessAfterMark runs after marking (old-space GC) or after the grey
// queue has drained (scavenge), when isLive can authoritatively answer
// "does this object survive the current cycle". Cleared references are
// removed from the registry so it doesn't grow unboundedly; closed
// ports are likewise dropped.
func (reg *WeakRefRegistry) ProcessAfterMark(isLive func(*HeapObject) bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	live := reg.refs[:0]
	for _, w := range reg.refs {
		if w.cleared {
			continue
		}
		if isLive(w.target) {
			live = append(live, w)
			continue
		}
		w.cleared = true
		if w.onCleared != nil {
			w.onCleared()
		}
	}
	reg.refs = live

	livePorts := reg.ports[:0]
	for _, p := range reg.ports {
		if isLive(p) {
			livePorts = append(livePorts, p)
			continue
		}
		p.portClosed = true
	}
	reg.ports = livePorts
}

// Relink rewrites every surviving weak reference's target and every
// tracked port to its post-GC (forwarded) address. Called once the move
// phase (scavenge copy or compaction) has completed.
func (reg *WeakRefRegistry) Relink() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, w := range reg.refs {
		if !w.cleared {
			w.target = w.target.Follow()
		}
	}
	for i, p := range reg.ports {
		reg.ports[i] = p.Follow()
	}
}
