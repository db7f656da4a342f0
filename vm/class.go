package vm

import "sync"

// classInfo holds the fields specific to a HeapObject whose kind is
// FormatClass: the shape assigned to its instances, its superclass link,
// and its method dispatch table.
//
// Method dispatch itself (selector resolution, message sends) belongs to
// the interpreter and is out of scope here; classInfo only has to keep
// the table's entries — Function objects — reachable and correctly
// updated across a program GC, like the rest of the code/class graph.
type classInfo struct {
	name       string
	superclass Value // tagged pointer to the superclass Class object, Nil for the root
	format     InstanceFormat
	fixedWords int
	methods    []Value // selector-ID indexed; each slot is a Function object or Nil
}

// NewClass allocates a class object directly in the program heap's
// to-space via the allocator's no-allocation-failure scope; class
// creation happens during program setup, which always pre-arranges
// enough capacity.
func NewClass(prog *Program, name string, instanceFormat InstanceFormat, superclass *HeapObject, fixedWords int) *HeapObject {
	h := &HeapObject{
		kind:     FormatClass,
		classVal: prog.Roots.ClassClass,
		cls: &classInfo{
			name:       name,
			format:     instanceFormat,
			fixedWords: fixedWords,
		},
	}
	if superclass != nil {
		h.cls.superclass = superclass.ToValue()
	}
	prog.ProgramSpace.placeDirect(h)
	return h
}

// Name returns the class's name. Panics if h is not a class.
func (h *HeapObject) Name() string {
	h.requireKind(FormatClass)
	return h.cls.name
}

// Superclass returns the class's superclass, or nil for the root class.
func (h *HeapObject) Superclass() *HeapObject {
	h.requireKind(FormatClass)
	if h.cls.superclass.IsNil() {
		return nil
	}
	return h.cls.superclass.Object().Follow()
}

// InstanceFormat returns the layout assigned to this class's instances.
func (h *HeapObject) InstanceFormat() InstanceFormat {
	h.requireKind(FormatClass)
	return h.cls.format
}

// IsSubclassOf reports whether h is other or a descendant of other.
// Both h and other must be classes.
func (h *HeapObject) IsSubclassOf(other *HeapObject) bool {
	for cur := h; cur != nil; cur = cur.Superclass() {
		if cur == other {
			return true
		}
	}
	return false
}

// LookupMethod walks h's superclass chain looking for a non-Nil method
// at selector. Returns Nil if none is found.
func (h *HeapObject) LookupMethod(selector int) Value {
	h.requireKind(FormatClass)
	for cur := h; cur != nil; cur = cur.Superclass() {
		if selector >= 0 && selector < len(cur.cls.methods) {
			if m := cur.cls.methods[selector]; !m.IsNil() {
				return m
			}
		}
	}
	return Nil
}

// AddMethod installs fn (a Function object's Value) at selector in h's
// own dispatch table, growing it as needed.
func (h *HeapObject) AddMethod(selector int, fn Value) {
	h.requireKind(FormatClass)
	if selector >= len(h.cls.methods) {
		grown := make([]Value, selector+1)
		copy(grown, h.cls.methods)
		h.cls.methods = grown
	}
	h.cls.methods[selector] = fn
}

func (h *HeapObject) requireKind(k InstanceFormat) {
	if h.kind != k {
		panic("vm: operation requires InstanceFormat " + formatName(k) + ", got " + formatName(h.kind))
	}
}

func formatName(f InstanceFormat) string {
	names := [...]string{
		"Special", "Coroutine", "Port", "Array", "ByteArray", "OneByteString",
		"TwoByteString", "Double", "HeapInteger", "Function", "Initializer",
		"DispatchTableEntry", "Smi", "Num", "Class", "Stack", "Instance",
	}
	if int(f) < len(names) {
		return names[f]
	}
	return "Unknown"
}

// ---------------------------------------------------------------------------
// ClassTable: program-wide class registry
// ---------------------------------------------------------------------------

// ClassTable is a thread-safe name -> *HeapObject (class) registry,
// consulted by the interpreter when resolving class references and by
// the program GC when enumerating program roots.
type ClassTable struct {
	mu      sync.RWMutex
	classes map[string]*HeapObject
}

// NewClassTable creates an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: make(map[string]*HeapObject)}
}

// Register adds or replaces a class, returning the class it replaced (if
// any).
func (ct *ClassTable) Register(c *HeapObject) *HeapObject {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	old := ct.classes[c.Name()]
	ct.classes[c.Name()] = c
	return old
}

// Lookup finds a class by name, or nil if none is registered.
func (ct *ClassTable) Lookup(name string) *HeapObject {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.classes[name]
}

// All returns every registered class, following forwarding pointers so
// callers always see post-GC addresses.
func (ct *ClassTable) All() []*HeapObject {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	out := make([]*HeapObject, 0, len(ct.classes))
	for _, c := range ct.classes {
		out = append(out, c.Follow())
	}
	return out
}

// Relink is called after a program GC: it re-keys the table from the
// (possibly moved) class objects, since a class's identity is stable but
// its address is not.
func (ct *ClassTable) Relink() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	relinked := make(map[string]*HeapObject, len(ct.classes))
	for name, c := range ct.classes {
		relinked[name] = c.Follow()
	}
	ct.classes = relinked
}
