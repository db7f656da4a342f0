package vm

import "testing"

func TestHeapObjectSize(t *testing.T) {
	prog := newTestProgram(t)

	arr := newTestArray(prog, FromSmi(1), FromSmi(2), FromSmi(3))
	if got, want := arr.Size(), headerWords+3; got != want {
		t.Fatalf("array Size() = %d, want %d", got, want)
	}

	bytes := &HeapObject{kind: FormatByteArray, classVal: prog.Roots.ByteArrayClass, bytes: make([]byte, 10)}
	if got, want := bytes.Size(), headerWords+wordsForBytes(10); got != want {
		t.Fatalf("byte array Size() = %d, want %d", got, want)
	}
}

func TestFollowChasesForwardingChain(t *testing.T) {
	a := &HeapObject{kind: FormatArray}
	b := &HeapObject{kind: FormatArray}
	c := &HeapObject{kind: FormatArray}
	a.ForwardTo(b)
	b.ForwardTo(c)

	if got := a.Follow(); got != c {
		t.Fatalf("a.Follow() = %p, want %p", got, c)
	}
	if !a.IsForwarded() {
		t.Fatal("a.IsForwarded() = false")
	}
	if c.IsForwarded() {
		t.Fatal("c.IsForwarded() = true")
	}
}

func TestForEachPointerVisitsArrayElements(t *testing.T) {
	prog := newTestProgram(t)
	inner := newTestArray(prog)
	outer := newTestArray(prog, inner.ToValue(), FromSmi(7))

	var seen []Value
	outer.ForEachPointer(func(get func() Value, set func(Value)) {
		seen = append(seen, get())
	})

	// classVal is visited first, then each word slot.
	if len(seen) != 3 {
		t.Fatalf("ForEachPointer visited %d fields, want 3 (class + 2 elements)", len(seen))
	}
	if seen[0] != outer.classVal {
		t.Fatalf("first visited field = %v, want classVal %v", seen[0], outer.classVal)
	}
	if seen[1].Object() != inner {
		t.Fatalf("second visited field did not reference inner array")
	}
	if seen[2] != FromSmi(7) {
		t.Fatalf("third visited field = %v, want Smi(7)", seen[2])
	}
}

func TestForEachPointerCanRewriteSlots(t *testing.T) {
	prog := newTestProgram(t)
	a := newTestArray(prog, FromSmi(1))
	replacement := newTestArray(prog)

	a.ForEachPointer(func(get func() Value, set func(Value)) {
		if get() == FromSmi(1) {
			set(replacement.ToValue())
		}
	})

	if a.words[0].Object() != replacement {
		t.Fatalf("slot not rewritten: got %v", a.words[0])
	}
}
