package vm

import "testing"

func TestScavengeWithRememberedSet(t *testing.T) {
	prog := newTestProgram(t)
	rs := prog.Remembered
	weak := prog.Weak

	a := newTestArray(prog, Nil)
	prog.ProcessHeap.New.Reset()
	prog.ProcessHeap.Old.Adopt(a) // A lives in old space

	b := newTestArray(prog) // B lives in new space
	a.words[0] = b.ToValue()
	WriteBarrier(prog.ProcessHeap, rs, a, b.ToValue())

	Scavenge(prog.ProcessHeap, rs, weak, nil, prog.Config)

	moved := a.words[0].Object()
	if moved == nil || moved.Kind() != FormatArray {
		t.Fatalf("A[0] after scavenge = %v, want a live array", a.words[0])
	}
	if moved == b {
		t.Fatal("A[0] should reference B's new address, not its from-space one")
	}
	if prog.ProcessHeap.New.Contains(b) {
		t.Fatal("B's old address should no longer be live in new space after scavenge")
	}
	if len(rs.Cards()) == 0 {
		t.Fatal("card must stay recorded while A still references new space")
	}

	// Scavenge until B ages past the promotion threshold and moves to old
	// space; A then holds no new-space pointer and its card must drop.
	for i := 0; i < int(prog.Config.PromotionAge); i++ {
		Scavenge(prog.ProcessHeap, rs, weak, nil, prog.Config)
	}
	if !prog.ProcessHeap.Old.Contains(a.words[0].Object()) {
		t.Fatal("B should have been promoted to old space")
	}
	if got := len(rs.Cards()); got != 0 {
		t.Fatalf("remembered card should drop once A no longer references new space, %d cards remain", got)
	}
}

func TestScavengePromotesAgedSurvivors(t *testing.T) {
	prog := newTestProgram(t)
	a := newTestArray(prog)

	root := testSingleRoot{value: a.ToValue()}
	for i := 0; i < int(prog.Config.PromotionAge)+1; i++ {
		Scavenge(prog.ProcessHeap, prog.Remembered, prog.Weak, []RootSource{&root}, prog.Config)
		a = root.value.Object()
	}

	if !prog.ProcessHeap.Old.Contains(a) {
		t.Fatal("object surviving past the promotion age threshold should be in old space")
	}
}

func TestScavengeDropsUnreachableObjects(t *testing.T) {
	prog := newTestProgram(t)
	newTestArray(prog, FromSmi(1)) // unreachable from any root

	before := len(prog.ProcessHeap.New.Objects())
	Scavenge(prog.ProcessHeap, prog.Remembered, prog.Weak, nil, prog.Config)
	after := len(prog.ProcessHeap.New.Objects())

	if after >= before {
		t.Fatalf("unreachable object should not survive scavenge: before=%d after=%d", before, after)
	}
}

type testSingleRoot struct {
	value Value
}

func (r *testSingleRoot) VisitProcessPointers(visit func(get func() Value, set func(Value))) {
	visit(func() Value { return r.value }, func(v Value) { r.value = v })
}
