package vm

// InstanceFormat identifies the layout of a heap object: a fixed header
// size plus a marker telling the allocator, the scavenger, and the
// compactor how to compute the object's total size and how to find its
// pointer fields.
type InstanceFormat int

const (
	FormatSpecial InstanceFormat = iota // null / true / false singletons
	FormatCoroutine
	FormatPort
	FormatArray
	FormatByteArray
	FormatOneByteString
	FormatTwoByteString
	FormatDouble
	FormatHeapInteger
	FormatFunction
	FormatInitializer
	FormatDispatchTableEntry
	FormatSmi // never heap-allocated; present for completeness of the marker space
	FormatNum
	FormatClass
	FormatStack
	FormatInstance
)

// HasPointers reports whether objects of this format carry traceable
// pointer fields that the GC must visit (as opposed to pure byte/numeric
// payloads).
func (f InstanceFormat) HasPointers() bool {
	switch f {
	case FormatByteArray, FormatOneByteString, FormatTwoByteString, FormatDouble, FormatHeapInteger, FormatSmi, FormatNum:
		return false
	default:
		return true
	}
}

// IsVariableSize reports whether instances of this format carry a
// trailing payload whose length is read from the object rather than
// fixed by the class's InstanceFormat alone.
func (f InstanceFormat) IsVariableSize() bool {
	switch f {
	case FormatArray, FormatByteArray, FormatOneByteString, FormatTwoByteString, FormatFunction, FormatStack:
		return true
	default:
		return false
	}
}
