package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// Memory wraps a guest's wazero memory to implement typerefl.Memory.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps mem.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds: offset=%d", offset)
	}
	return v, nil
}

func (m *Memory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Memory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d", offset)
	}
	return nil
}

func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return fmt.Errorf("write out of bounds: offset=%d", offset)
	}
	return nil
}

// reallocAllocator implements typerefl.Allocator through the guest's
// exported cabi_realloc(old_ptr, old_size, align, new_size).
type reallocAllocator struct {
	ctx   context.Context
	fn    api.Function
	stack [4]uint64
}

func newReallocAllocator(ctx context.Context, mod api.Module) *reallocAllocator {
	return &reallocAllocator{ctx: ctx, fn: mod.ExportedFunction(ReallocExport)}
}

func (a *reallocAllocator) Alloc(size, align uint32) (uint32, error) {
	if a.fn == nil {
		return 0, fmt.Errorf("guest does not export %s", ReallocExport)
	}
	a.stack = [4]uint64{0, 0, uint64(align), uint64(size)}
	if err := a.fn.CallWithStack(a.ctx, a.stack[:]); err != nil {
		return 0, err
	}
	ptr := uint32(a.stack[0])
	if ptr == 0 && size != 0 {
		return 0, fmt.Errorf("%s returned null for %d bytes", ReallocExport, size)
	}
	return ptr, nil
}

// Free shrinks the block to zero bytes. Guests that do not reclaim memory
// simply ignore the call.
func (a *reallocAllocator) Free(ptr, size, align uint32) {
	if a.fn == nil || ptr == 0 {
		return
	}
	a.stack = [4]uint64{uint64(ptr), uint64(size), uint64(align), 0}
	if err := a.fn.CallWithStack(a.ctx, a.stack[:]); err != nil {
		Logger().Warn("free through cabi_realloc failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}
