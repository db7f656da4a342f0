package vm

// Roots holds the program's named root slots: the prototype classes
// every builtin InstanceFormat needs and the three singleton objects
// the interpreter classifies booleans by address, which is why
// null/false/true carry a fixed placement spacing.
type Roots struct {
	ClassClass              Value
	FunctionClass           Value
	StackClass              Value
	ArrayClass              Value
	ByteArrayClass          Value
	OneByteStringClass      Value
	TwoByteStringClass      Value
	DoubleClass             Value
	HeapIntegerClass        Value
	CoroutineClass          Value
	PortClass               Value
	InitializerClass        Value
	DispatchTableEntryClass Value
	InstanceClass           Value

	NullObject  Value
	FalseObject Value
	TrueObject  Value

	// Sentinel strings the runtime interns once so error paths never
	// allocate: the out-of-memory message and the empty string.
	EmptyString        Value
	OutOfMemoryMessage Value
}

// Each walks every slot in r, following the same get/set visitor shape
// ForEachPointer uses so the scavenger and program GC can share one
// fixup routine. Process-pointer and program-pointer traversal stay
// two distinct visitor shapes (RootSource for processes, Each for the
// program's own named slots) rather than one unified walk, since the
// two pointer directions carry different invariants: process-to-program
// is read-only and always legal, program-to-process must never occur.
func (r *Roots) Each(visit func(get func() Value, set func(Value))) {
	visit(func() Value { return r.ClassClass }, func(v Value) { r.ClassClass = v })
	visit(func() Value { return r.FunctionClass }, func(v Value) { r.FunctionClass = v })
	visit(func() Value { return r.StackClass }, func(v Value) { r.StackClass = v })
	visit(func() Value { return r.ArrayClass }, func(v Value) { r.ArrayClass = v })
	visit(func() Value { return r.ByteArrayClass }, func(v Value) { r.ByteArrayClass = v })
	visit(func() Value { return r.OneByteStringClass }, func(v Value) { r.OneByteStringClass = v })
	visit(func() Value { return r.TwoByteStringClass }, func(v Value) { r.TwoByteStringClass = v })
	visit(func() Value { return r.DoubleClass }, func(v Value) { r.DoubleClass = v })
	visit(func() Value { return r.HeapIntegerClass }, func(v Value) { r.HeapIntegerClass = v })
	visit(func() Value { return r.CoroutineClass }, func(v Value) { r.CoroutineClass = v })
	visit(func() Value { return r.PortClass }, func(v Value) { r.PortClass = v })
	visit(func() Value { return r.InitializerClass }, func(v Value) { r.InitializerClass = v })
	visit(func() Value { return r.DispatchTableEntryClass }, func(v Value) { r.DispatchTableEntryClass = v })
	visit(func() Value { return r.InstanceClass }, func(v Value) { r.InstanceClass = v })
	visit(func() Value { return r.NullObject }, func(v Value) { r.NullObject = v })
	visit(func() Value { return r.FalseObject }, func(v Value) { r.FalseObject = v })
	visit(func() Value { return r.TrueObject }, func(v Value) { r.TrueObject = v })
	visit(func() Value { return r.EmptyString }, func(v Value) { r.EmptyString = v })
	visit(func() Value { return r.OutOfMemoryMessage }, func(v Value) { r.OutOfMemoryMessage = v })
}
