package vm

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// snapshotObject is the CBOR-encodable projection of one program-space
// HeapObject, keyed by its post-snapshot-GC bump order so the decoder
// can reconstruct pointer fields as plain indices instead of needing
// real addresses.
type snapshotObject struct {
	Index    int      `cbor:"index"`
	Kind     int      `cbor:"kind"`
	Class    int      `cbor:"class"` // index of this object's class, -1 if none
	Bytes    []byte   `cbor:"bytes,omitempty"`
	Units    []uint16 `cbor:"units,omitempty"`
	Float    float64  `cbor:"float,omitempty"`
	Big      *big.Int `cbor:"big,omitempty"`      // heap-integer payload, CBOR bignum
	Pointers []int    `cbor:"pointers,omitempty"` // indices of every pointer field, in ForEachPointer order
}

// Snapshot is the encoded, portable projection of a program's code
// heap after snapshot GC: the object table plus the fixed-offset
// metadata a loader needs before any object is reconstructed. Writing
// the loader-facing binary file format is left to an external snapshot
// writer; Snapshot is the in-memory artifact that writer would
// serialize, consuming the post-GC program heap as-is.
type Snapshot struct {
	ObjectCount int              `cbor:"object_count"`
	DoubleClass int              `cbor:"double_class"`
	NullIndex   int              `cbor:"null_index"`
	FalseIndex  int              `cbor:"false_index"`
	TrueIndex   int              `cbor:"true_index"`
	Objects     []snapshotObject `cbor:"objects"`
}

// BuildSnapshot runs PerformProgramGC in its snapshot-layout variant
// and
// projects the resulting program space into a Snapshot. Callers embed
// the VM; this package does not write bytes to disk.
func BuildSnapshot(prog *Program) (*Snapshot, error) {
	PerformProgramGC(prog, true)

	objects := prog.ProgramSpace.Objects()
	indexOf := make(map[*HeapObject]int, len(objects))
	for i, h := range objects {
		indexOf[h] = i
	}

	snap := &Snapshot{
		ObjectCount: len(objects),
		DoubleClass: indexOf[prog.Roots.DoubleClass.Object()],
		NullIndex:   indexOf[prog.Roots.NullObject.Object()],
		FalseIndex:  indexOf[prog.Roots.FalseObject.Object()],
		TrueIndex:   indexOf[prog.Roots.TrueObject.Object()],
		Objects:     make([]snapshotObject, len(objects)),
	}

	for i, h := range objects {
		so := snapshotObject{Index: i, Kind: int(h.Kind())}
		if c := h.Class(); c != nil {
			so.Class = indexOf[c]
		} else {
			so.Class = -1
		}
		so.Bytes = h.bytes
		so.Units = h.units
		so.Float = h.f64
		so.Big = h.big
		h.ForEachPointer(func(get func() Value, set func(Value)) {
			v := get()
			if v.IsHeapObject() {
				so.Pointers = append(so.Pointers, indexOf[v.Object()])
			} else {
				so.Pointers = append(so.Pointers, -1)
			}
		})
		snap.Objects[i] = so
	}
	return snap, nil
}

// EncodeSnapshot serializes snap with canonical CBOR, matching the
// EncMode used for wire messages elsewhere in the codebase — canonical
// encoding keeps a snapshot's bytes stable across runs with the same
// logical content, which snapshot diffing and distribution tooling
// depend on.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("vm: building canonical CBOR mode: %w", err)
	}
	data, err := mode.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("vm: encoding snapshot: %w", err)
	}
	return data, nil
}

// Snapshot builds and encodes the program heap's snapshot in one call,
// recording the SHA-256 of the encoded bytes as the program's snapshot
// hash. A session layer compares hashes to decide whether a peer
// already holds the current snapshot without re-transferring it.
func (p *Program) Snapshot() ([]byte, error) {
	snap, err := BuildSnapshot(p)
	if err != nil {
		return nil, err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	p.setSnapshotHash(sha256.Sum256(data))
	return data, nil
}

// DecodeSnapshot parses a previously encoded Snapshot. It does not
// reconstruct a Program; rehydrating program space from a snapshot is
// the snapshot loader's job, outside this package's scope.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("vm: decoding snapshot: %w", err)
	}
	return &snap, nil
}
