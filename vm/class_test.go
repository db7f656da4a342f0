package vm

import "testing"

func TestIsSubclassOf(t *testing.T) {
	prog := newTestProgram(t)
	object := prog.Roots.InstanceClass.Object()
	array := prog.Roots.ArrayClass.Object()

	if !array.IsSubclassOf(object) {
		t.Fatal("Array should be a subclass of Object")
	}
	if !array.IsSubclassOf(array) {
		t.Fatal("a class should be a subclass of itself")
	}
	if object.IsSubclassOf(array) {
		t.Fatal("Object should not be a subclass of Array")
	}
}

func TestLookupMethodWalksSuperclassChain(t *testing.T) {
	prog := newTestProgram(t)
	object := prog.Roots.InstanceClass.Object()
	array := prog.Roots.ArrayClass.Object()

	fn := NewFunction(prog, 0, []byte{1, 2, 3}, nil, 0)
	object.AddMethod(5, fn.ToValue())

	if got := array.LookupMethod(5); got.Object() != fn {
		t.Fatalf("LookupMethod did not find inherited method, got %v", got)
	}
	if got := array.LookupMethod(99); !got.IsNil() {
		t.Fatalf("LookupMethod(99) = %v, want Nil", got)
	}
}

func TestClassTableRegisterAndLookup(t *testing.T) {
	ct := NewClassTable()
	c := &HeapObject{kind: FormatClass, cls: &classInfo{name: "Foo"}}
	ct.Register(c)

	if got := ct.Lookup("Foo"); got != c {
		t.Fatalf("Lookup(Foo) = %v, want %v", got, c)
	}
	if got := ct.Lookup("Missing"); got != nil {
		t.Fatalf("Lookup(Missing) = %v, want nil", got)
	}
}

func TestClassTableRelinkFollowsForwarding(t *testing.T) {
	ct := NewClassTable()
	original := &HeapObject{kind: FormatClass, cls: &classInfo{name: "Foo"}}
	moved := &HeapObject{kind: FormatClass, cls: &classInfo{name: "Foo"}}
	ct.Register(original)
	original.ForwardTo(moved)

	ct.Relink()

	if got := ct.Lookup("Foo"); got != moved {
		t.Fatalf("Lookup(Foo) after Relink = %v, want %v", got, moved)
	}
}
