package vm

import "sync"

// ExitKind mirrors Signal for the program-level exit status captured
// once the main process is torn down.
type ExitKind = Signal

// Program is the per-VM singleton tying together the program heap, the
// process heap, the process list, and debug state. It is
// constructed once by the top-level VM entry point and threaded
// explicitly everywhere else — never stashed behind a package-level
// global.
type Program struct {
	mu sync.Mutex

	ProgramSpace *SemiSpace // immutable code/class heap
	ProcessHeap  *Heap      // shared two-space process data heap
	ProcessSpace *SemiSpace // convenience alias for ProcessHeap.New

	Roots      *Roots
	Classes    *ClassTable
	Processes  *ProcessList
	Debug      *DebugInfo
	Remembered *RememberedSet
	Weak       *WeakRefRegistry

	// Telemetry is nil unless an embedder opts in via AttachTelemetry;
	// GC cycles are only persisted when it's set.
	Telemetry *TelemetryStore

	Config Config

	snapshotHash [32]byte
	exitKind     ExitKind
	exitCaptured bool

	stackChain Value // Program GC's linked-list-of-live-stacks root; Nil outside a program GC
}

// NewProgram builds an empty program sized per cfg. Callers populate
// Roots and register builtin classes afterward, inside a
// no-allocation-failure scope on ProgramSpace.
func NewProgram(cfg Config) *Program {
	heap := NewHeap(cfg)
	prog := &Program{
		ProgramSpace: NewSemiSpace("program", cfg.ChunkWords, 1, 0),
		ProcessHeap:  heap,
		ProcessSpace: heap.New,
		Roots:        &Roots{},
		Classes:      NewClassTable(),
		Processes:    NewProcessList(),
		Debug:        NewDebugInfo(),
		Remembered:   NewRememberedSet(),
		Weak:         NewWeakRefRegistry(),
		Config:       cfg,
	}
	return prog
}

// AttachTelemetry opts the program into persisting GC-cycle stats
// through store; every subsequent CollectNewSpace, CollectOldSpace, and
// PerformProgramGC call records a row. Passing nil detaches it.
func (p *Program) AttachTelemetry(store *TelemetryStore) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Telemetry = store
}

// InternSentinelStrings allocates the root sentinel strings directly
// in program space: the empty string and the out-of-memory message,
// created up front so error paths never have to allocate them. Runs
// during program setup, after the string classes are registered and
// inside the setup's no-allocation-failure scope.
func (p *Program) InternSentinelStrings() {
	empty := &HeapObject{
		kind:     FormatOneByteString,
		classVal: p.Roots.OneByteStringClass,
	}
	p.ProgramSpace.placeDirect(empty)

	msg := []byte("out of memory")
	oom := &HeapObject{
		kind:     FormatOneByteString,
		classVal: p.Roots.OneByteStringClass,
		bytes:    msg,
		length:   len(msg),
	}
	p.ProgramSpace.placeDirect(oom)

	p.Roots.EmptyString = empty.ToValue()
	p.Roots.OutOfMemoryMessage = oom.ToValue()
}

// setExitKind records the program's exit kind the first time a main
// process is torn down; later calls (there should be none) are ignored
// rather than clobbering the first captured signal.
func (p *Program) setExitKind(signal Signal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exitCaptured {
		return
	}
	p.exitKind = signal
	p.exitCaptured = true
}

// ExitKind returns the program's captured exit signal and whether one
// has been captured yet (false until the main process terminates).
func (p *Program) ExitKind() (ExitKind, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitKind, p.exitCaptured
}

// SnapshotHash returns the hash recorded by the most recent
// successful snapshot write (see snapshot.go); all zero before the
// first snapshot.
func (p *Program) SnapshotHash() [32]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotHash
}

func (p *Program) setSnapshotHash(h [32]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshotHash = h
}

// VerifyRootSpacing asserts the null/false/true 2-word spacing
// invariant: the interpreter classifies booleans by comparing
// addresses against null's address plus a fixed word offset, so the
// three singletons must stay exactly two words apart in program space
// after every program GC.
func (p *Program) VerifyRootSpacing() {
	null := p.Roots.NullObject.Object()
	false_ := p.Roots.FalseObject.Object()
	true_ := p.Roots.TrueObject.Object()
	invariant(null != nil && false_ != nil && true_ != nil, "null/false/true spacing", "missing singleton")

	order := p.ProgramSpace.Objects()
	index := make(map[*HeapObject]int, len(order))
	for i, h := range order {
		index[h] = i
	}
	ni, nok := index[null]
	fi, fok := index[false_]
	ti, tok := index[true_]
	invariant(nok && fok && tok, "null/false/true spacing", "singleton missing from program space")
	invariant(fi == ni+1 && ti == ni+2, "null/false/true spacing", "singletons not consecutive")
}
