package vm

import "unsafe"

// funcInfo holds the fields specific to a HeapObject whose kind is
// FormatFunction: compiled bytecode plus the literal pool the bytecode
// indexes into.
//
// Literals are traced as ordinary pointer slots (object.go's
// ForEachPointer); bytecode is an opaque byte payload the GC never
// interprets — its only contact with the collector is through the
// cook/uncook protocol, which rewrites the interior bcp references held
// by stack frames into (function, delta) pairs before a function can
// move. Breakpoints keep a (function, bytecode index) pair and have their
// bcp recomputed after a program GC instead.
type funcInfo struct {
	arity    int
	bytecode []byte
	literals []Value
	maxSlots int // frame size this function requires, for a fresh call
}

// NewFunction allocates a function object with the given bytecode and
// literal pool. The bytecode slice is copied so later mutation of the
// caller's buffer cannot corrupt a live function.
func NewFunction(prog *Program, arity int, bytecode []byte, literals []Value, maxSlots int) *HeapObject {
	code := make([]byte, len(bytecode))
	copy(code, bytecode)
	lits := make([]Value, len(literals))
	copy(lits, literals)
	h := &HeapObject{
		kind:     FormatFunction,
		classVal: prog.Roots.FunctionClass,
		fn: &funcInfo{
			arity:    arity,
			bytecode: code,
			literals: lits,
			maxSlots: maxSlots,
		},
	}
	prog.ProgramSpace.placeDirect(h)
	return h
}

// Arity returns the function's declared parameter count.
func (h *HeapObject) Arity() int {
	h.requireKind(FormatFunction)
	return h.fn.arity
}

// Bytecode returns the function's bytecode. Callers must not retain the
// slice across a program GC: a compacting or snapshot GC replaces a
// moved function's backing array entirely.
func (h *HeapObject) Bytecode() []byte {
	h.requireKind(FormatFunction)
	return h.fn.bytecode
}

// Literal returns the literal-pool entry at index, used by the
// interpreter to resolve LOAD_LITERAL-style opcodes.
func (h *HeapObject) Literal(index int) Value {
	h.requireKind(FormatFunction)
	return h.fn.literals[index]
}

// MaxSlots returns the frame slot count a fresh activation of this
// function needs, computed at compile time and stored so the stack
// allocator never has to inspect bytecode.
func (h *HeapObject) MaxSlots() int {
	h.requireKind(FormatFunction)
	return h.fn.maxSlots
}

// BytecodeAddressFor returns the absolute address of the bytecode byte
// at offset within h's bytecode array. offset 0 is the canonical
// function-start address used both by the interpreter dispatch loop and
// by a freshly cooked stack frame.
func (h *HeapObject) BytecodeAddressFor(offset int) uintptr {
	h.requireKind(FormatFunction)
	if offset < 0 || offset > len(h.fn.bytecode) {
		panic("vm: BytecodeAddressFor offset out of range")
	}
	return bytecodeBase(h.fn.bytecode) + uintptr(offset)
}

// OffsetOf returns bcp's offset within h's bytecode array, the inverse
// of BytecodeAddressFor. Used by the cook pass to turn a frame's live
// interior pointer into a (function, delta) pair before the function can
// be moved.
func (h *HeapObject) OffsetOf(bcp uintptr) int {
	h.requireKind(FormatFunction)
	base := bytecodeBase(h.fn.bytecode)
	if bcp < base || bcp > base+uintptr(len(h.fn.bytecode)) {
		panic("vm: OffsetOf bcp outside function's bytecode")
	}
	return int(bcp - base)
}

func bytecodeBase(bytecode []byte) uintptr {
	if len(bytecode) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&bytecode[0]))
}
