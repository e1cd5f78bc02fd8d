package seq

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/typerefl/errors"
	"github.com/wippyai/typerefl/internal/abi"
)

// nullGuard keeps offset 0 unused so that a zero pointer is always null.
const nullGuard = abi.WordSize

// LinearMemory is an in-process linear memory with a bump allocator. It
// implements typerefl.Memory, typerefl.MemorySizer and typerefl.Allocator.
// It is not safe for concurrent use.
type LinearMemory struct {
	data  []byte
	next  uint32
	limit uint32
}

// NewLinearMemory creates a memory that may grow up to limit bytes.
// A zero limit means the full 32-bit address space.
func NewLinearMemory(limit uint32) *LinearMemory {
	if limit == 0 {
		limit = math.MaxUint32
	}
	return &LinearMemory{
		data:  make([]byte, nullGuard, 4096),
		next:  nullGuard,
		limit: limit,
	}
}

func (m *LinearMemory) Size() uint32 {
	return uint32(len(m.data))
}

// Alloc returns a zeroed block of size bytes aligned to align.
func (m *LinearMemory) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	ptr := uint32(abi.AlignTo(int64(m.next), int64(align)))
	end, ok := abi.SafeAddU32(ptr, size)
	if !ok || end > m.limit {
		return 0, errors.AllocationFailed(errors.PhaseMarshal, size, align)
	}
	if int(end) > len(m.data) {
		m.data = append(m.data, make([]byte, int(end)-len(m.data))...)
	}
	clear(m.data[ptr:end])
	m.next = bumpEnd(end)
	return ptr, nil
}

// Free releases a block. Only the most recent block is reclaimed.
func (m *LinearMemory) Free(ptr, size, align uint32) {
	if ptr != 0 && bumpEnd(ptr+size) == m.next {
		m.next = ptr
	}
}

// bumpEnd rounds a block end up to a word. Every block starts word aligned.
func bumpEnd(end uint32) uint32 {
	return uint32(abi.AlignTo(int64(end), nullGuard))
}

func (m *LinearMemory) check(offset, length uint32) error {
	end, ok := abi.SafeAddU32(offset, length)
	if !ok || int(end) > len(m.data) {
		return errors.OutOfBounds(errors.PhaseMarshal, nil, int(offset), len(m.data))
	}
	return nil
}

// Read returns a view of length bytes at offset.
func (m *LinearMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m.data[offset : offset+length], nil
}

func (m *LinearMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *LinearMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *LinearMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *LinearMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *LinearMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *LinearMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *LinearMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}
