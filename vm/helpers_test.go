package vm

import "testing"

// newTestProgram builds a minimal but internally consistent Program:
// enough classes and singletons to exercise allocation, the scavenger,
// the old-space collector, and program GC without pulling in the
// interpreter this package treats as an external collaborator.
func newTestProgram(t *testing.T) *Program {
	t.Helper()

	cfg := DefaultConfig()
	cfg.ChunkWords = 64
	cfg.NewSpaceChunks = 4
	cfg.PromotionAge = 2
	cfg.LargeObjectThreshold = 1 << 20
	cfg.OldSpaceBudgetWords = 4096

	prog := NewProgram(cfg)

	prog.ProgramSpace.EnterNoAllocationFailureScope()
	defer prog.ProgramSpace.ExitNoAllocationFailureScope()

	object := NewClass(prog, "Object", FormatInstance, nil, 0)
	classClass := NewClass(prog, "Class", FormatClass, object, 0)
	arrayClass := NewClass(prog, "Array", FormatArray, object, 0)
	byteArrayClass := NewClass(prog, "ByteArray", FormatByteArray, object, 0)
	stringClass := NewClass(prog, "String", FormatOneByteString, object, 0)
	doubleClass := NewClass(prog, "Double", FormatDouble, object, 0)
	heapIntegerClass := NewClass(prog, "HeapInteger", FormatHeapInteger, object, 0)
	functionClass := NewClass(prog, "Function", FormatFunction, object, 0)
	stackClass := NewClass(prog, "Stack", FormatStack, object, 0)
	nullClass := NewClass(prog, "Null", FormatSpecial, object, 0)
	falseClass := NewClass(prog, "False", FormatSpecial, object, 0)
	trueClass := NewClass(prog, "True", FormatSpecial, object, 0)

	prog.Roots.InstanceClass = object.ToValue()
	prog.Roots.ClassClass = classClass.ToValue()
	prog.Roots.ArrayClass = arrayClass.ToValue()
	prog.Roots.ByteArrayClass = byteArrayClass.ToValue()
	prog.Roots.OneByteStringClass = stringClass.ToValue()
	prog.Roots.DoubleClass = doubleClass.ToValue()
	prog.Roots.HeapIntegerClass = heapIntegerClass.ToValue()
	prog.Roots.FunctionClass = functionClass.ToValue()
	prog.Roots.StackClass = stackClass.ToValue()

	for _, c := range []*HeapObject{object, classClass, arrayClass, byteArrayClass, stringClass, doubleClass, heapIntegerClass, functionClass, stackClass, nullClass, falseClass, trueClass} {
		prog.Classes.Register(c)
	}

	nullObj := &HeapObject{kind: FormatSpecial, classVal: nullClass.ToValue()}
	prog.ProgramSpace.placeDirect(nullObj)
	falseObj := &HeapObject{kind: FormatSpecial, classVal: falseClass.ToValue()}
	prog.ProgramSpace.placeDirect(falseObj)
	trueObj := &HeapObject{kind: FormatSpecial, classVal: trueClass.ToValue()}
	prog.ProgramSpace.placeDirect(trueObj)

	prog.Roots.NullObject = nullObj.ToValue()
	prog.Roots.FalseObject = falseObj.ToValue()
	prog.Roots.TrueObject = trueObj.ToValue()

	prog.InternSentinelStrings()

	return prog
}

func newTestArray(prog *Program, elems ...Value) *HeapObject {
	h := &HeapObject{
		kind:     FormatArray,
		classVal: prog.Roots.ArrayClass,
		words:    append([]Value(nil), elems...),
	}
	got := prog.ProcessHeap.Allocate(h)
	if got == FailureObject {
		panic("newTestArray: allocation failed")
	}
	return got
}
