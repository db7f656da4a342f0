package vm

// frame is one activation record within a Stack object: the function
// being executed, the receiver it was sent to, its local slots
// (arguments, temporaries, and the expression stack all live here),
// and a bytecode cursor.
//
// bcp is a live interior pointer into the owning function's bytecode
// while the stack is "uncooked" (normal execution). Before any GC pass
// that might move a Function object, the cook pass rewrites bcp into a
// (cookedFunc, cookedDelta) pair; uncook reverses it once addresses are
// final again.
type frame struct {
	function Value
	receiver Value
	slots    []Value

	bcp uintptr

	cooked      bool
	cookedFunc  Value
	cookedDelta int
}

// stackInfo holds the fields specific to a HeapObject whose kind is
// FormatStack: a process's call stack, represented as a slice of frames
// with the currently executing frame last.
//
// next is used only during program GC's stack-chaining pass, which
// links every live Stack into a singly-linked list rooted at
// Program.stackChain so the cook/uncook passes can walk all of them
// without re-deriving liveness from the process list. It is Nil outside
// a program GC.
type stackInfo struct {
	frames []frame
	next   Value
}

// Next returns the stack's program-GC chain link.
func (h *HeapObject) Next() Value {
	h.requireKind(FormatStack)
	return h.st.next
}

// SetNext sets the stack's program-GC chain link.
func (h *HeapObject) SetNext(v Value) {
	h.requireKind(FormatStack)
	h.st.next = v
}

// NewStack allocates an empty stack with capacity for depth frames.
// Used during program setup, inside a no-allocation-failure scope;
// panics if the space cannot honor that contract. Runtime process
// spawns should use tryNewStack instead, which can report failure.
func NewStack(prog *Program, depth int) *HeapObject {
	h := &HeapObject{
		kind:     FormatStack,
		classVal: prog.Roots.StackClass,
		st:       &stackInfo{frames: make([]frame, 0, depth)},
	}
	prog.ProcessSpace.placeDirect(h)
	return h
}

// tryNewStack allocates a stack through the ordinary fallible path,
// returning nil if the process heap's new space is exhausted and
// cannot grow.
func tryNewStack(prog *Program, depth int) *HeapObject {
	h := &HeapObject{
		kind:     FormatStack,
		classVal: prog.Roots.StackClass,
		st:       &stackInfo{frames: make([]frame, 0, depth)},
	}
	if !prog.ProcessSpace.Allocate(h) {
		return nil
	}
	return h
}

// Depth returns the number of live frames.
func (h *HeapObject) Depth() int {
	h.requireKind(FormatStack)
	return len(h.st.frames)
}

// PushFrame starts a new activation of fn with the given receiver,
// cursored to fn's canonical entry point.
func (h *HeapObject) PushFrame(fn *HeapObject, receiver Value) {
	h.requireKind(FormatStack)
	h.st.frames = append(h.st.frames, frame{
		function: fn.ToValue(),
		receiver: receiver,
		slots:    make([]Value, fn.MaxSlots()),
		bcp:      fn.BytecodeAddressFor(0),
	})
}

// PopFrame discards the top activation. Panics if the stack is empty.
func (h *HeapObject) PopFrame() {
	h.requireKind(FormatStack)
	n := len(h.st.frames)
	if n == 0 {
		panic("vm: PopFrame on empty stack")
	}
	h.st.frames = h.st.frames[:n-1]
}

// TopFrame returns a pointer to the currently executing frame, or nil if
// the stack is empty.
func (h *HeapObject) TopFrame() *frame {
	h.requireKind(FormatStack)
	if len(h.st.frames) == 0 {
		return nil
	}
	return &h.st.frames[len(h.st.frames)-1]
}

// FrameAt returns a pointer to the frame at depth i, 0 being the
// outermost (oldest) frame.
func (h *HeapObject) FrameAt(i int) *frame {
	h.requireKind(FormatStack)
	return &h.st.frames[i]
}

// BCP returns the frame's current bytecode cursor. Valid only while the
// frame is uncooked; callers racing a GC pass must check IsCooked first.
func (fr *frame) BCP() uintptr { return fr.bcp }

// SetBCP updates the frame's bytecode cursor, called by the interpreter
// after every dispatched instruction.
func (fr *frame) SetBCP(bcp uintptr) { fr.bcp = bcp }

// IsCooked reports whether the frame is currently holding a
// (function, delta) pair instead of a live bcp.
func (fr *frame) IsCooked() bool { return fr.cooked }

// Cook converts the frame's live bcp into a (function, delta) pair
// relative to fn, the function the frame is currently executing. Called
// once per frame during a program GC's cook pass, which runs after the
// stacks are chained and before any function can be relocated.
func (fr *frame) Cook(fn *HeapObject) {
	if fr.cooked {
		return
	}
	fr.cookedFunc = fn.ToValue()
	fr.cookedDelta = fn.OffsetOf(fr.bcp)
	fr.cooked = true
}

// Uncook restores the frame's live bcp from its cooked (function, delta)
// pair, called once the function graph has reached its final addresses.
func (fr *frame) Uncook() {
	if !fr.cooked {
		return
	}
	fn := fr.cookedFunc.Object().Follow()
	fr.bcp = fn.BytecodeAddressFor(fr.cookedDelta)
	fr.function = fn.ToValue()
	fr.cooked = false
}

// CookedFunction returns the function a frame belongs to whether or not
// it is cooked: cookedFunc while cooked, function otherwise.
func (fr *frame) CookedFunction() Value {
	if fr.cooked {
		return fr.cookedFunc
	}
	return fr.function
}
