package vm

import "math/big"

// HeapObject is the single concrete representation behind every kind of
// heap-resident value the VM knows about: arrays, byte arrays, one- and
// two-byte strings, boxed doubles, heap integers, functions, classes,
// stacks, coroutines, ports, and generic instances.
//
// The header (kind, classVal, identity, age, forward) is present on
// every object regardless of kind; the payload fields below it are only
// meaningful for the kinds that use them. One Go type instead of one
// type per kind keeps the fixed header-plus-format-driven-payload
// layout in a single place, so the scavenger and compactor have a
// single Copy/ForEachPointer/Size to reason about.
type HeapObject struct {
	kind     InstanceFormat
	classVal Value // tagged pointer to this object's Class
	identity uint32
	age      uint8
	marked   bool // old-space mark bit; irrelevant once an object is swept or copied
	forward  *HeapObject

	words  []Value  // pointer slots: array/instance elements, function literals, coroutine's stack ref
	bytes  []byte   // byte payload: byte array, one-byte string (function bytecode lives in fn)
	units  []uint16 // two-byte string code units
	f64    float64  // boxed double payload
	big    *big.Int // heap integer payload
	length int      // logical element/char count for variable-size kinds

	portClosed bool // meaningful only when kind == FormatPort

	cls *classInfo // non-nil iff kind == FormatClass
	fn  *funcInfo  // non-nil iff kind == FormatFunction
	st  *stackInfo // non-nil iff kind == FormatStack
}

// Kind returns the object's InstanceFormat.
func (h *HeapObject) Kind() InstanceFormat { return h.kind }

// Class returns the object's class, following a forwarding pointer if
// the class itself has been moved since classVal was last read.
func (h *HeapObject) Class() *HeapObject {
	c := h.classVal.Object()
	if c == nil {
		return nil
	}
	return c.Follow()
}

// Follow returns the live copy of h: h itself if it has not been moved
// by a scavenge or compaction, or the object it was forwarded to
// (transitively, in case of a chain left by a pathological double move).
func (h *HeapObject) Follow() *HeapObject {
	for h.forward != nil {
		h = h.forward
	}
	return h
}

// IsForwarded reports whether h has a forwarding pointer installed.
func (h *HeapObject) IsForwarded() bool { return h.forward != nil }

// ForwardTo installs a forwarding pointer from h to dst. Used by the
// scavenger and compactor; h is a from-space/about-to-be-freed husk
// after this call.
func (h *HeapObject) ForwardTo(dst *HeapObject) { h.forward = dst }

// IdentityHash returns the object's stored identity hash. Copies made by
// the scavenger, compactor, and program GC carry it over unchanged. No
// code in this package assigns a hash, so it reads 0 unless the field
// was set when the object was built.
func (h *HeapObject) IdentityHash() uint32 { return h.identity }

// Age returns the object's scavenge-survival count, used by the
// scavenger's promotion threshold.
func (h *HeapObject) Age() uint8 { return h.age }

// ToValue tags h as a Value.
func (h *HeapObject) ToValue() Value { return ObjectValue(h) }

// Size returns the object's size in words: fixed-size objects report
// their class's fixed word count; variable-size objects add their
// trailing payload's word count (byte payloads are word-rounded).
func (h *HeapObject) Size() int {
	switch h.kind {
	case FormatArray:
		return headerWords + len(h.words)
	case FormatByteArray, FormatOneByteString:
		return headerWords + wordsForBytes(len(h.bytes))
	case FormatTwoByteString:
		return headerWords + wordsForBytes(len(h.units)*2)
	case FormatFunction:
		return headerWords + wordsForBytes(len(h.fn.bytecode)) + len(h.fn.literals)
	case FormatStack:
		return headerWords + len(h.st.frames)*framewords
	case FormatClass:
		return classHeaderWords
	default:
		if c := h.Class(); c != nil && c.cls != nil {
			return headerWords + c.cls.fixedWords
		}
		return headerWords
	}
}

// headerWords is the two-word header every HeapObject carries: class
// pointer + identity-hash/age word.
const headerWords = 2

// classHeaderWords is the fixed size of a Class object: the two header
// words plus one word for the superclass pointer.
const classHeaderWords = headerWords + 1

// framewords is the fixed word count of one Stack frame slot.
const framewords = 1

func wordsForBytes(n int) int {
	const wordSize = 8
	return (n + wordSize - 1) / wordSize
}

// ForEachPointer calls visit for every traceable pointer field the
// object holds: its class, and — for pointer-bearing kinds — every
// element/slot/literal. It does not descend into frame bcp slots; those
// are interior pointers handled separately by cook/uncook.
func (h *HeapObject) ForEachPointer(visit func(get func() Value, set func(Value))) {
	visit(func() Value { return h.classVal }, func(v Value) { h.classVal = v })

	switch h.kind {
	case FormatArray, FormatInstance, FormatCoroutine, FormatDispatchTableEntry, FormatInitializer:
		for i := range h.words {
			i := i
			visit(func() Value { return h.words[i] }, func(v Value) { h.words[i] = v })
		}
	case FormatFunction:
		for i := range h.fn.literals {
			i := i
			visit(func() Value { return h.fn.literals[i] }, func(v Value) { h.fn.literals[i] = v })
		}
	case FormatClass:
		visit(func() Value { return h.cls.superclass }, func(v Value) { h.cls.superclass = v })
		for i := range h.cls.methods {
			i := i
			visit(func() Value { return h.cls.methods[i] }, func(v Value) { h.cls.methods[i] = v })
		}
	case FormatStack:
		visit(func() Value { return h.st.next }, func(v Value) { h.st.next = v })
		for i := range h.st.frames {
			fr := &h.st.frames[i]
			if fr.cooked {
				visit(func() Value { return fr.cookedFunc }, func(v Value) { fr.cookedFunc = v })
			} else {
				visit(func() Value { return fr.function }, func(v Value) { fr.function = v })
			}
			visit(func() Value { return fr.receiver }, func(v Value) { fr.receiver = v })
			for j := range fr.slots {
				j := j
				visit(func() Value { return fr.slots[j] }, func(v Value) { fr.slots[j] = v })
			}
		}
	}
}
