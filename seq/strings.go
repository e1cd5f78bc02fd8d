package seq

import (
	"encoding/binary"

	"github.com/wippyai/typerefl"
	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/internal/abi"
)

// Strings materializes Go strings as caller-visible string values.
type Strings interface {
	// Make stores s and returns the value that a str slot holds.
	Make(s string) (uint32, error)
	// Release frees a value returned by Make.
	Release(ptr uint32)
}

// LinearStrings stores strings in linear memory the way the runtime does:
// a {len, capacity} prefix, the bytes, then a NUL terminator. The returned
// pointer addresses the first byte, so the prefix sits just below it.
type LinearStrings struct {
	mem   typerefl.Memory
	alloc typerefl.Allocator
}

func NewLinearStrings(mem typerefl.Memory, alloc typerefl.Allocator) *LinearStrings {
	return &LinearStrings{mem: mem, alloc: alloc}
}

func (s *LinearStrings) Make(str string) (uint32, error) {
	n := uint32(len(str))
	if int(n) != len(str) {
		return 0, errors.Overflow(errors.PhaseMarshal, nil, len(str), "string length")
	}
	capacity, ok := abi.SafeAddU32(n, 1)
	if !ok {
		return 0, errors.Overflow(errors.PhaseMarshal, nil, len(str), "string length")
	}
	total, ok := abi.SafeAddU32(abi.DimensionsSize, capacity)
	if !ok {
		return 0, errors.Overflow(errors.PhaseMarshal, nil, len(str), "string length")
	}

	block, err := s.alloc.Alloc(total, abi.WordSize)
	if err != nil {
		return 0, allocErr(total, abi.WordSize, err)
	}
	buf := make([]byte, total)
	binary.LittleEndian.PutUint64(buf[0:], uint64(n))
	binary.LittleEndian.PutUint64(buf[8:], uint64(capacity))
	copy(buf[abi.DimensionsSize:], str)
	if err := s.mem.Write(block, buf); err != nil {
		s.alloc.Free(block, total, abi.WordSize)
		return 0, err
	}
	return block + abi.DimensionsSize, nil
}

func (s *LinearStrings) Release(ptr uint32) {
	if ptr < abi.DimensionsSize {
		return
	}
	capacity, err := s.mem.ReadU64(ptr - 8)
	if err != nil {
		return
	}
	s.alloc.Free(ptr-abi.DimensionsSize, abi.DimensionsSize+uint32(capacity), abi.WordSize)
}

// ReadString reads a string stored by LinearStrings. A null pointer reads
// as the empty string.
func ReadString(mem typerefl.Memory, ptr uint32) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	if ptr < abi.DimensionsSize {
		return "", errors.OutOfBounds(errors.PhaseMarshal, nil, int(ptr), abi.DimensionsSize)
	}
	n, err := mem.ReadU64(ptr - abi.DimensionsSize)
	if err != nil {
		return "", err
	}
	if n > uint64(^uint32(0)) {
		return "", errors.InvalidData(errors.PhaseMarshal, nil, "string length exceeds memory")
	}
	data, err := mem.Read(ptr, uint32(n))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func allocErr(size, align uint32, cause error) error {
	e := errors.AllocationFailed(errors.PhaseMarshal, size, align)
	e.Cause = cause
	return e
}
