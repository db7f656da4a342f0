package vm

import "testing"

func TestProcessTeardownTriangleTree(t *testing.T) {
	prog := newTestProgram(t)
	entry := NewFunction(prog, 0, []byte{0}, nil, 0)

	p := SpawnProcess(prog, nil, entry, Nil)
	a := SpawnProcess(prog, p, entry, Nil)
	b := SpawnProcess(prog, p, entry, Nil)
	c := SpawnProcess(prog, a, entry, Nil)

	if got, want := p.TriangleCount(), 3; got != want {
		t.Fatalf("P.TriangleCount() = %d, want %d", got, want)
	}
	if got, want := a.TriangleCount(), 2; got != want {
		t.Fatalf("A.TriangleCount() = %d, want %d", got, want)
	}

	ScheduleProcessForDeletion(prog, c, SignalTerminated)
	if got, want := a.TriangleCount(), 1; got != want {
		t.Fatalf("A.TriangleCount() after C deleted = %d, want %d", got, want)
	}
	if got, want := p.TriangleCount(), 3; got != want {
		t.Fatalf("P.TriangleCount() after C deleted = %d, want %d (C's share lives in A's count, not P's)", got, want)
	}

	ScheduleProcessForDeletion(prog, b, SignalTerminated)
	if got, want := p.TriangleCount(), 2; got != want {
		t.Fatalf("P.TriangleCount() after B deleted = %d, want %d", got, want)
	}

	ScheduleProcessForDeletion(prog, a, SignalTerminated)
	if got, want := p.TriangleCount(), 1; got != want {
		t.Fatalf("P.TriangleCount() after A deleted = %d, want %d", got, want)
	}
	if _, ok := prog.Processes.processes[a.id]; ok {
		t.Fatal("A should have been removed from the process list")
	}

	ScheduleProcessForDeletion(prog, p, SignalCompileTimeError)
	if got, want := p.TriangleCount(), 0; got != want {
		t.Fatalf("P.TriangleCount() after P deleted = %d, want %d", got, want)
	}
	if _, ok := prog.Processes.processes[p.id]; ok {
		t.Fatal("P should have been removed from the process list")
	}
	exitKind, captured := prog.ExitKind()
	if !captured || exitKind != SignalCompileTimeError {
		t.Fatalf("ExitKind() = (%v, %v), want (%v, true)", exitKind, captured, SignalCompileTimeError)
	}
}

func TestProcessDeletionDefersUntilChildrenCollapse(t *testing.T) {
	prog := newTestProgram(t)
	entry := NewFunction(prog, 0, []byte{0}, nil, 0)

	p := SpawnProcess(prog, nil, entry, Nil)
	a := SpawnProcess(prog, p, entry, Nil)
	c := SpawnProcess(prog, a, entry, Nil)

	ScheduleProcessForDeletion(prog, a, SignalTerminated)
	if got := a.State(); got != ProcessWaitingForChildren {
		t.Fatalf("A.State() with a live child = %v, want waitingForChildren", got)
	}
	if _, ok := prog.Processes.processes[a.id]; !ok {
		t.Fatal("A must stay in the process list while C is alive")
	}
	if got, want := p.TriangleCount(), 2; got != want {
		t.Fatalf("P.TriangleCount() while A waits = %d, want %d", got, want)
	}

	// C's deletion collapses A, whose zero then cascades into P's count.
	ScheduleProcessForDeletion(prog, c, SignalTerminated)
	if got := a.State(); got != ProcessTerminated {
		t.Fatalf("A.State() after C collapsed = %v, want terminated", got)
	}
	if _, ok := prog.Processes.processes[a.id]; ok {
		t.Fatal("A should be removed once its last child is gone")
	}
	if got, want := p.TriangleCount(), 1; got != want {
		t.Fatalf("P.TriangleCount() after subtree collapsed = %d, want %d", got, want)
	}
}

func TestSpawnProcessPushesInitialFrame(t *testing.T) {
	prog := newTestProgram(t)
	entry := NewFunction(prog, 0, []byte{0, 1, 2}, nil, 2)

	p := SpawnProcess(prog, nil, entry, FromSmi(1))

	stack := p.Stack()
	if got := stack.Depth(); got != 1 {
		t.Fatalf("initial stack depth = %d, want 1", got)
	}
	fr := stack.TopFrame()
	if fr.function.Object() != entry {
		t.Fatal("initial frame's function is not the entry function")
	}
	if fr.receiver != FromSmi(1) {
		t.Fatalf("initial frame's receiver = %v, want Smi(1)", fr.receiver)
	}
}
