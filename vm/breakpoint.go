package vm

import "sync"

// Breakpoint identifies a place to halt. A non-nil Coroutine
// together with a non-negative StackHeight turns it into a step-over
// breakpoint: it only fires when the interpreter's stack pointer is
// exactly at the recorded depth, so stepping over a call doesn't also
// stop inside the callee.
type Breakpoint struct {
	ID            uint64
	Function      Value // program pointer, visited during program GC
	BytecodeIndex int
	OneShot       bool
	Coroutine     Value // process pointer, visited during data GC
	StackHeight   int
	isStepOver    bool
}

// DebugInfo owns the bcp->Breakpoint map and the single-step flag.
// A breakpoint's bcp is recomputed after every program GC since a
// function's bytecode can move.
type DebugInfo struct {
	mu sync.Mutex

	byBCP      map[uintptr]*Breakpoint
	bySelector map[bcpKey]*Breakpoint // (function identity, bytecode index) -> breakpoint, for idempotence
	nextID     uint64
	isStepping bool
}

type bcpKey struct {
	fn    *HeapObject
	index int
}

// NewDebugInfo creates an empty breakpoint table.
func NewDebugInfo() *DebugInfo {
	return &DebugInfo{
		byBCP:      make(map[uintptr]*Breakpoint),
		bySelector: make(map[bcpKey]*Breakpoint),
	}
}

// SetBreakpoint installs a breakpoint at (function, bytecodeIndex),
// returning its id. Idempotent: calling it again for the same
// (function, bytecodeIndex) returns the existing id rather than
// creating a duplicate.
func (d *DebugInfo) SetBreakpoint(function *HeapObject, bytecodeIndex int, oneShot bool) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := bcpKey{fn: function.Follow(), index: bytecodeIndex}
	if existing, ok := d.bySelector[key]; ok {
		return existing.ID
	}

	d.nextID++
	bp := &Breakpoint{
		ID:            d.nextID,
		Function:      function.ToValue(),
		BytecodeIndex: bytecodeIndex,
		OneShot:       oneShot,
	}
	bcp := function.BytecodeAddressFor(bytecodeIndex)
	d.byBCP[bcp] = bp
	d.bySelector[key] = bp
	return bp.ID
}

// SetStepOverBreakpoint installs a breakpoint that only fires when the
// interpreter's stack height matches expectedHeight on the given
// coroutine, used to implement "step over a call" without stopping
// inside it. Step-over breakpoints are one-shot: they delete themselves
// when they fire.
func (d *DebugInfo) SetStepOverBreakpoint(function *HeapObject, bytecodeIndex int, coroutine *HeapObject, expectedHeight int) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := bcpKey{fn: function.Follow(), index: bytecodeIndex}
	if existing, ok := d.bySelector[key]; ok {
		return existing.ID
	}

	d.nextID++
	bp := &Breakpoint{
		ID:            d.nextID,
		Function:      function.ToValue(),
		BytecodeIndex: bytecodeIndex,
		OneShot:       true,
		Coroutine:     coroutine.ToValue(),
		StackHeight:   expectedHeight,
		isStepOver:    true,
	}
	bcp := function.BytecodeAddressFor(bytecodeIndex)
	d.byBCP[bcp] = bp
	d.bySelector[key] = bp
	return bp.ID
}

// DeleteBreakpoint removes the breakpoint with the given id, if any.
func (d *DebugInfo) DeleteBreakpoint(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for bcp, bp := range d.byBCP {
		if bp.ID == id {
			delete(d.byBCP, bcp)
			delete(d.bySelector, bcpKey{fn: bp.Function.Object(), index: bp.BytecodeIndex})
			return
		}
	}
}

// SetStepping toggles single-step mode: while true, ShouldBreak returns
// true on every bcp regardless of the breakpoint table.
func (d *DebugInfo) SetStepping(stepping bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isStepping = stepping
}

// ShouldBreak reports whether the interpreter should halt at bcp with
// the current stack height sp. A one-shot breakpoint is removed the
// instant it fires. A step-over breakpoint only fires at its recorded
// height.
func (d *DebugInfo) ShouldBreak(bcp uintptr, sp int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isStepping {
		return true
	}

	bp, ok := d.byBCP[bcp]
	if !ok {
		return false
	}
	if bp.isStepOver && sp != bp.StackHeight {
		return false
	}
	if bp.OneShot {
		delete(d.byBCP, bcp)
		delete(d.bySelector, bcpKey{fn: bp.Function.Object(), index: bp.BytecodeIndex})
	}
	return true
}

// RecomputeAfterProgramGC rebuilds the bcp-keyed map from each
// breakpoint's (function, bytecode_index) pair, since a program GC may
// have moved the function.
func (d *DebugInfo) RecomputeAfterProgramGC() {
	d.mu.Lock()
	defer d.mu.Unlock()

	rebuilt := make(map[uintptr]*Breakpoint, len(d.byBCP))
	rebuiltSel := make(map[bcpKey]*Breakpoint, len(d.bySelector))
	for _, bp := range d.byBCP {
		fn := bp.Function.Object().Follow()
		bp.Function = fn.ToValue()
		newBCP := fn.BytecodeAddressFor(bp.BytecodeIndex)
		rebuilt[newBCP] = bp
		rebuiltSel[bcpKey{fn: fn, index: bp.BytecodeIndex}] = bp
	}
	d.byBCP = rebuilt
	d.bySelector = rebuiltSel
}

// VisitProgramPointers visits every breakpoint's Function field — a
// program pointer, traced during program GC.
func (d *DebugInfo) VisitProgramPointers(visit func(get func() Value, set func(Value))) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, bp := range d.byBCP {
		bp := bp
		visit(func() Value { return bp.Function }, func(v Value) { bp.Function = v })
	}
}

// VisitProcessPointers visits every breakpoint's Coroutine field — a
// process pointer, traced during data GCs.
func (d *DebugInfo) VisitProcessPointers(visit func(get func() Value, set func(Value))) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, bp := range d.byBCP {
		bp := bp
		if bp.Coroutine.IsNil() {
			continue
		}
		visit(func() Value { return bp.Coroutine }, func(v Value) { bp.Coroutine = v })
	}
}
