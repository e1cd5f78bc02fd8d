package abi

import "math"

// WordSize is the width of pointers, handles and the int/uint/real kinds.
const WordSize = 8

// Fixed header sizes of the out-of-line containers.
const (
	DynArrayHeaderSize = 3 * WordSize // type, itemSize, data
	MapHeaderSize      = 2 * WordSize // type, root
	InterfaceSize      = 2 * WordSize // self, selfType
	DimensionsSize     = 2 * WordSize // len, capacity
)

// AlignTo rounds offset up to the next multiple of align.
// A non-positive align leaves the offset unchanged.
func AlignTo(offset, align int64) int64 {
	if align <= 0 {
		return offset
	}
	if r := offset % align; r != 0 {
		return offset + align - r
	}
	return offset
}

func SafeMulI64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if b != 0 && a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddI64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}
