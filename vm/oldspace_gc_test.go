package vm

import "testing"

func TestCollectOldSpaceSweepsUnreachable(t *testing.T) {
	prog := newTestProgram(t)
	live := newTestArray(prog)
	dead := &HeapObject{kind: FormatArray, classVal: prog.Roots.ArrayClass}
	prog.ProcessHeap.Old.Adopt(live)
	prog.ProcessHeap.Old.Adopt(dead)
	prog.ProcessHeap.New.Reset()

	root := testSingleRoot{value: live.ToValue()}
	stats := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)

	if stats.WasCompact {
		t.Fatal("first cycle (no prior cycle) should be a sweep, not a compact")
	}
	if prog.ProcessHeap.Old.Contains(dead) {
		t.Fatal("unreachable object should have been swept")
	}
	if !prog.ProcessHeap.Old.Contains(live) {
		t.Fatal("reachable object should survive sweep")
	}
}

func TestCollectOldSpaceAlternatesCompactAndSweep(t *testing.T) {
	prog := newTestProgram(t)
	live := newTestArray(prog)
	prog.ProcessHeap.Old.Adopt(live)
	prog.ProcessHeap.New.Reset()
	root := testSingleRoot{value: live.ToValue()}

	first := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)
	root.value = root.value.Object().Follow().ToValue()
	second := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)

	if first.WasCompact == second.WasCompact {
		t.Fatalf("consecutive cycles should alternate: first=%v second=%v", first.WasCompact, second.WasCompact)
	}
}

func TestCollectOldSpaceIdempotentWithNoMutatorAction(t *testing.T) {
	prog := newTestProgram(t)
	live := newTestArray(prog)
	prog.ProcessHeap.Old.Adopt(live)
	prog.ProcessHeap.New.Reset()
	root := testSingleRoot{value: live.ToValue()}

	first := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)
	root.value = root.value.Object().Follow().ToValue()

	secondRoot := testSingleRoot{value: root.value}
	second := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&secondRoot}, prog.Config)

	if got, want := len(prog.ProcessHeap.Old.Objects()), 1; got != want {
		t.Fatalf("reachable object count changed across idempotent cycles: got %d want %d", got, want)
	}
	if first.UsedAfter != second.UsedAfter {
		t.Fatalf("used_after_last_gc changed with no mutator action: %d != %d", first.UsedAfter, second.UsedAfter)
	}
}

func TestCompactionPreservesPointerValues(t *testing.T) {
	prog := newTestProgram(t)
	inner := newTestArray(prog, FromSmi(42))
	outer := newTestArray(prog, inner.ToValue())
	prog.ProcessHeap.Old.Adopt(inner)
	prog.ProcessHeap.Old.Adopt(outer)
	prog.ProcessHeap.New.Reset()

	root := testSingleRoot{value: outer.ToValue()}
	// A fresh heap's first cycle sweeps; the second one compacts.
	CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)
	stats := CollectOldSpace(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)
	if !stats.WasCompact {
		t.Fatal("second old-space cycle should compact")
	}

	newOuter := root.value.Object()
	newInner := newOuter.words[0].Object()
	if newInner.words[0] != FromSmi(42) {
		t.Fatalf("compacted inner array lost its value: got %v", newInner.words[0])
	}
}
