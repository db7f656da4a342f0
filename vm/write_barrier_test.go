package vm

import "testing"

func TestWriteBarrierRecordsOldToNewStore(t *testing.T) {
	prog := newTestProgram(t)
	rs := NewRememberedSet()

	a := newTestArray(prog, Nil)
	prog.ProcessHeap.New.Reset()
	prog.ProcessHeap.Old.Adopt(a) // simulate A having already been promoted

	b := newTestArray(prog) // lives in new space

	a.words[0] = b.ToValue()
	WriteBarrier(prog.ProcessHeap, rs, a, b.ToValue())

	cards := rs.Cards()
	if len(cards) != 1 || cards[0] != a {
		t.Fatalf("remembered set = %v, want [%p]", cards, a)
	}
}

func TestWriteBarrierIgnoresNewToNewStore(t *testing.T) {
	prog := newTestProgram(t)
	rs := NewRememberedSet()

	a := newTestArray(prog, Nil)
	b := newTestArray(prog)

	WriteBarrier(prog.ProcessHeap, rs, a, b.ToValue())

	if len(rs.Cards()) != 0 {
		t.Fatal("write barrier should not record a new-space container's store")
	}
}

func TestWriteBarrierIgnoresSmiStore(t *testing.T) {
	prog := newTestProgram(t)
	rs := NewRememberedSet()
	a := newTestArray(prog, Nil)
	prog.ProcessHeap.New.Reset()
	prog.ProcessHeap.Old.Adopt(a)

	WriteBarrier(prog.ProcessHeap, rs, a, FromSmi(3))

	if len(rs.Cards()) != 0 {
		t.Fatal("write barrier should not record a Smi store")
	}
}
