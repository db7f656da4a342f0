package vm

import "testing"

func TestBytecodeAddressForAndOffsetOfRoundTrip(t *testing.T) {
	prog := newTestProgram(t)
	fn := NewFunction(prog, 1, []byte{0xAA, 0xBB, 0xCC, 0xDD}, nil, 2)

	bcp := fn.BytecodeAddressFor(2)
	if got := fn.OffsetOf(bcp); got != 2 {
		t.Fatalf("OffsetOf(BytecodeAddressFor(2)) = %d, want 2", got)
	}

	start := fn.BytecodeAddressFor(0)
	if got := fn.OffsetOf(start); got != 0 {
		t.Fatalf("OffsetOf(BytecodeAddressFor(0)) = %d, want 0", got)
	}
}

func TestFunctionLiteralsAreTraced(t *testing.T) {
	prog := newTestProgram(t)
	lit := newTestArray(prog)
	fn := NewFunction(prog, 0, []byte{0x01}, []Value{lit.ToValue(), FromSmi(9)}, 0)

	var found bool
	fn.ForEachPointer(func(get func() Value, set func(Value)) {
		if v := get(); v.IsHeapObject() && v.Object() == lit {
			found = true
		}
	})
	if !found {
		t.Fatal("ForEachPointer did not visit function literal")
	}
}
