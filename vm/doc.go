// Package vm implements the object memory subsystem of the lantern VM: the
// tagged value representation, the two-space process heap, the program
// (code) heap, the generational scavenger, the old-space mark-sweep /
// mark-compact collector, the program GC, the remembered set, weak-pointer
// and port cleanup hooks, process lifecycle, and the debugger breakpoint
// table.
//
// The bytecode interpreter, the snapshot file format, the session/debugger
// wire protocol, and the scheduler's thread pool are treated as external
// collaborators: this package exposes the hooks they need (Allocate,
// WriteBarrier, ShouldBreak, root iteration) without implementing them.
package vm
