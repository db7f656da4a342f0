package vm

import "testing"

func TestTelemetryRecordsAttachedGCCycles(t *testing.T) {
	prog := newTestProgram(t)

	store, err := OpenTelemetryStore("")
	if err != nil {
		t.Fatalf("OpenTelemetryStore: %v", err)
	}
	defer store.Close()
	prog.AttachTelemetry(store)

	newTestArray(prog, FromSmi(1), FromSmi(2))
	prog.CollectNewSpace()

	n, err := store.CycleCount()
	if err != nil {
		t.Fatalf("CycleCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("CycleCount after one attached scavenge = %d, want 1", n)
	}

	prog.CollectOldSpace()
	n, err = store.CycleCount()
	if err != nil {
		t.Fatalf("CycleCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("CycleCount after scavenge+oldspace GC = %d, want 2", n)
	}
}

func TestTelemetryUnattachedProgramDoesNotPanic(t *testing.T) {
	prog := newTestProgram(t)
	newTestArray(prog, FromSmi(1))
	prog.CollectNewSpace()
	prog.CollectOldSpace()
}
